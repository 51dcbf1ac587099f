package cpu

import (
	"encoding/binary"
	"io"
	"os"
)

// Image is a loadable program image: a load origin followed by the words
// placed contiguously from that origin. The wire format is a stream of
// big-endian 16-bit words, origin first.
type Image struct {
	Origin uint16
	Words  []uint16
}

// ReadImage parses an image stream. The stream must hold at least the
// origin word and a whole number of words.
func ReadImage(r io.Reader) (img *Image, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	if len(data) < 2 {
		err = ErrImageShort
		return
	}
	if len(data)%2 != 0 {
		err = ErrImageOdd
		return
	}

	img = &Image{
		Origin: binary.BigEndian.Uint16(data),
	}
	for n := 2; n < len(data); n += 2 {
		img.Words = append(img.Words, binary.BigEndian.Uint16(data[n:]))
	}

	return
}

// ReadImageFile parses an image file.
func ReadImageFile(path string) (img *Image, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	return ReadImage(inf)
}

// LoadInto places the image words in memory starting at the origin.
// Addresses wrap at the top of the address space, like every other
// address computation on this machine.
func (img *Image) LoadInto(mem *Memory) {
	addr := img.Origin
	for _, word := range img.Words {
		mem.Write(addr, word)
		addr++
	}
}

// Bytes renders the image in its wire format.
func (img *Image) Bytes() (data []byte) {
	data = binary.BigEndian.AppendUint16(data, img.Origin)
	for _, word := range img.Words {
		data = binary.BigEndian.AppendUint16(data, word)
	}

	return
}
