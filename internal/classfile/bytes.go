/*
 * Copyright 2024 The Gojumble Authors
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// byteReader is a minimal big-endian cursor over a class file's bytes.
// It exists so parsing code reads like the format it mirrors (u1/u2/u4/u8
// fields), rather than scattering binary.Read calls.
type byteReader struct {
	b   []byte
	pos int
}

func newByteReader(b []byte) *byteReader {
	return &byteReader{b: b}
}

func (r *byteReader) u1() (byte, error) {
	if r.pos+1 > len(r.b) {
		return 0, fmt.Errorf("classfile: unexpected EOF reading u1 at %d", r.pos)
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *byteReader) u2() (uint16, error) {
	if r.pos+2 > len(r.b) {
		return 0, fmt.Errorf("classfile: unexpected EOF reading u2 at %d", r.pos)
	}
	v := binary.BigEndian.Uint16(r.b[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *byteReader) u4() (uint32, error) {
	if r.pos+4 > len(r.b) {
		return 0, fmt.Errorf("classfile: unexpected EOF reading u4 at %d", r.pos)
	}
	v := binary.BigEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) u8() (uint64, error) {
	if r.pos+8 > len(r.b) {
		return 0, fmt.Errorf("classfile: unexpected EOF reading u8 at %d", r.pos)
	}
	v := binary.BigEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.b) {
		return nil, fmt.Errorf("classfile: unexpected EOF reading %d bytes at %d", n, r.pos)
	}
	v := r.b[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

func (r *byteReader) remaining() int {
	return len(r.b) - r.pos
}

// byteWriter is the emit-side counterpart of byteReader.
type byteWriter struct {
	buf bytes.Buffer
}

func (w *byteWriter) u1(v byte) {
	w.buf.WriteByte(v)
}

func (w *byteWriter) u2(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *byteWriter) u4(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *byteWriter) u8(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *byteWriter) raw(b []byte) {
	w.buf.Write(b)
}

func (w *byteWriter) bytes() []byte {
	return w.buf.Bytes()
}
