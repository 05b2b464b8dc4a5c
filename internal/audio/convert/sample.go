package convert

import (
	"encoding/binary"
)

func Float32ToInt16(src []float32) []int16 {
	dst := make([]int16, len(src))
	for i, v := range src {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		dst[i] = int16(v * 32767)
	}
	return dst
}

func Int16ToFloat32(src []int16) []float32 {
	dst := make([]float32, len(src))
	for i, v := range src {
		dst[i] = float32(v) / 32767.0
	}
	return dst
}

// Int16ToBytes convert int16 sample to byte (Little Endian)
func Int16ToBytes(src []int16) []byte {
	dst := make([]byte, len(src)*2)
	PutInt16s(dst, src)
	return dst
}

// BytesToInt16 reads little endian samples; a trailing odd byte is ignored.
func BytesToInt16(src []byte) []int16 {
	dst := make([]int16, len(src)/2)
	ReadInt16s(dst, src)
	return dst
}

// PutInt16s writes src into dst as little endian. dst must hold 2*len(src) bytes.
func PutInt16s(dst []byte, src []int16) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[i*2:i*2+2], uint16(v))
	}
}

// ReadInt16s fills dst from little endian bytes in src.
func ReadInt16s(dst []int16, src []byte) {
	for i := range dst {
		if i*2+1 >= len(src) {
			return
		}
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2 : i*2+2]))
	}
}
