package flate

type blockType uint8

const (
	blockStored blockType = iota
	blockFixed
	blockDynamic
	blockReserved
)

func (t blockType) String() string {
	switch t {
	case blockStored:
		return "stored"
	case blockFixed:
		return "fixed"
	case blockDynamic:
		return "dynamic"
	}
	return "reserved"
}

type blockHeader struct {
	final bool
	typ   blockType
}

// readBlockHeader reads the 3-bit header at the start of each block.
func readBlockHeader(br *bitReader) (blockHeader, error) {
	v, err := br.getBits(3)
	if err != nil {
		return blockHeader{}, err
	}
	h := blockHeader{
		final: v&1 == 1,
		typ:   blockType(v >> 1),
	}
	if h.typ == blockReserved {
		return h, ErrInvalidBlockType
	}
	return h, nil
}

// readStoredHeader skips to the next byte boundary and reads LEN and NLEN.
// It returns the number of bytes in the block.
func readStoredHeader(br *bitReader) (int, error) {
	br.alignToByte()
	n, err := br.getBits(16)
	if err != nil {
		return 0, err
	}
	nn, err := br.getBits(16)
	if err != nil {
		return 0, err
	}
	if uint16(nn) != ^uint16(n) {
		return 0, ErrStoredLengthMismatch
	}
	return int(n), nil
}

// readBlock starts a new block: it reads the block header, and the stored
// lengths or the dynamic code definitions that follow it.
func (d *Decoder) readBlock() error {
	h, err := readBlockHeader(&d.br)
	if err != nil {
		return err
	}

	switch h.typ {
	case blockStored:
		n, err := readStoredHeader(&d.br)
		if err != nil {
			return err
		}
		d.stored = n
		d.state = stateStored
	case blockFixed:
		d.lit, d.dist = fixedTables()
		d.state = stateHuffman
	case blockDynamic:
		if err := d.dyn.read(&d.br); err != nil {
			return err
		}
		d.lit, d.dist = &d.dyn.lit, &d.dyn.dist
		d.state = stateHuffman
	}
	d.final = h.final
	d.blocks++
	return nil
}

// copyStored copies as much of the current stored block to the window as
// the input and the window have room for.
func (d *Decoder) copyStored() error {
	n := d.stored
	if a := d.win.Available(); n > a {
		n = a
	}
	if n > 0 {
		b, err := d.br.readBytes(n)
		if err != nil {
			return err
		}
		d.win.Write(b)
		d.stored -= len(b)
		d.unmatched += len(b)
	}
	if d.stored == 0 {
		d.endBlock()
	}
	return nil
}
