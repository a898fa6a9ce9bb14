package flate

// RFC 1951, section 3.2.7.
// Compression with dynamic Huffman codes

// dynamicHeader holds the scratch space for reading the code definitions at
// the start of a dynamic block, and the tables built from them.
type dynamicHeader struct {
	lengths [maxNumLit + maxNumDist]uint8
	clen    huffmanTable
	lit     huffmanTable
	dist    huffmanTable
}

// read reads the header of a dynamic block from br, leaving the literal/length
// and distance tables in h.lit and h.dist.
func (h *dynamicHeader) read(br *bitReader) error {
	// HLIT[5], HDIST[5], HCLEN[4]
	v, err := br.getBits(5 + 5 + 4)
	if err != nil {
		return err
	}
	nlit := int(v&0x1f) + 257
	ndist := int(v>>5&0x1f) + 1
	nclen := int(v>>10) + 4
	if nlit > maxNumLit || ndist > maxNumDist {
		return ErrInvalidHuffmanTable
	}

	// (HCLEN+4)*3 bits: code lengths in codeLengthOrder.
	var clens [numCodeLengths]uint8
	for i := 0; i < nclen; i++ {
		v, err := br.getBits(3)
		if err != nil {
			return err
		}
		clens[codeLengthOrder[i]] = uint8(v)
	}
	if err := h.clen.init(clens[:]); err != nil {
		return err
	}

	// HLIT+257 literal/length code lengths and HDIST+1 distance code lengths,
	// coded with the code length code. Repeats may run from one into the
	// other.
	lengths := h.lengths[:nlit+ndist]
	for i := 0; i < len(lengths); {
		sym, err := h.clen.decode(br)
		if err != nil {
			return err
		}
		if sym < 16 {
			lengths[i] = uint8(sym)
			i++
			continue
		}

		var rep int
		var nb uint
		var l uint8
		switch sym {
		case 16:
			if i == 0 {
				return ErrInvalidRepeatCode
			}
			l = lengths[i-1]
			rep, nb = 3, 2
		case 17:
			rep, nb = 3, 3
		case 18:
			rep, nb = 11, 7
		default:
			return ErrInvalidSymbol
		}
		x, err := br.getBits(nb)
		if err != nil {
			return err
		}
		rep += int(x)
		if i+rep > len(lengths) {
			return ErrInvalidRepeatCode
		}
		for j := 0; j < rep; j++ {
			lengths[i] = l
			i++
		}
	}

	if lengths[endOfBlock] == 0 {
		// Every block ends with an end-of-block code.
		return ErrInvalidHuffmanTable
	}
	if err := h.lit.init(lengths[:nlit]); err != nil {
		return err
	}
	return h.dist.init(lengths[nlit:])
}
