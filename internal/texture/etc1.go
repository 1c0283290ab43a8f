package texture

// ETC1 block encoding. A 4×4 block splits into two subblocks, either
// side-by-side 2×4 halves (flip=0) or stacked 4×2 halves (flip=1). Each
// subblock gets a base color plus one of eight modifier tables; every
// pixel adds one of the table's four modifiers to the base.

// etc1Tables holds the modifier rows in pixel-index order
// {+small, +large, -small, -large}, matching the codeword layout.
var etc1Tables = [8][4]int{
	{2, 8, -2, -8},
	{5, 17, -5, -17},
	{9, 29, -9, -29},
	{13, 42, -13, -42},
	{18, 60, -18, -60},
	{24, 80, -24, -80},
	{33, 106, -33, -106},
	{47, 183, -47, -183},
}

// subblockPixels returns the block-relative pixel positions of subblock
// sb (0 or 1) for a flip orientation.
func subblockPixels(flip, sb int) [8]int {
	var px [8]int
	n := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			var in bool
			if flip == 0 {
				in = (x < 2) == (sb == 0)
			} else {
				in = (y < 2) == (sb == 0)
			}
			if in {
				px[n] = y*4 + x
				n++
			}
		}
	}
	return px
}

// etc1Candidate is one fully evaluated encoding choice for a subblock.
type etc1Candidate struct {
	table int
	codes [8]int // per-pixel modifier index, in subblockPixels order
	err   int
}

// average returns the mean color of a pixel group, rounded.
func average(blk *block, px [8]int) (r, g, b int) {
	for _, p := range px {
		r += blk.r[p]
		g += blk.g[p]
		b += blk.b[p]
	}
	return (r + 4) >> 3, (g + 4) >> 3, (b + 4) >> 3
}

// quant4 quantizes an 8-bit component to 4 bits and expands it back.
func quant4(v int) (q, expanded int) {
	q = (v*15 + 127) / 255
	return q, q<<4 | q
}

// quant5 quantizes an 8-bit component to 5 bits and expands it back.
func quant5(v int) (q, expanded int) {
	q = (v*31 + 127) / 255
	return q, q<<3 | q>>2
}

// expand5 expands a 5-bit component to 8 bits.
func expand5(q int) int { return q<<3 | q>>2 }

// bestTable evaluates all eight modifier tables for a subblock against an
// expanded base color and returns the cheapest choice.
func bestTable(blk *block, px [8]int, br, bg, bb int) etc1Candidate {
	best := etc1Candidate{err: 1 << 62}
	for t, mods := range etc1Tables {
		var cand etc1Candidate
		cand.table = t
		for i, p := range px {
			bestCode := 0
			bestErr := 1 << 30
			for c, m := range mods {
				dr := blk.r[p] - clamp255(br+m)
				dg := blk.g[p] - clamp255(bg+m)
				db := blk.b[p] - clamp255(bb+m)
				e := dr*dr + dg*dg + db*db
				if e < bestErr {
					bestErr = e
					bestCode = c
				}
			}
			cand.codes[i] = bestCode
			cand.err += bestErr
		}
		if cand.err < best.err {
			best = cand
		}
	}
	return best
}

// etc1Encoding is a complete candidate encoding of one block.
type etc1Encoding struct {
	flip, diff int
	bytes012   [3]byte // the packed base colors
	sub        [2]etc1Candidate
	subPx      [2][8]int
	err        int
}

// tryFlip builds the best encoding for one flip orientation, using
// differential base colors when useDiff is set and the 5-bit deltas fit.
func tryFlip(blk *block, flip int, useDiff bool) (etc1Encoding, bool) {
	var enc etc1Encoding
	enc.flip = flip
	enc.subPx[0] = subblockPixels(flip, 0)
	enc.subPx[1] = subblockPixels(flip, 1)

	var avg [2][3]int
	for sb := 0; sb < 2; sb++ {
		avg[sb][0], avg[sb][1], avg[sb][2] = average(blk, enc.subPx[sb])
	}

	if useDiff {
		var q [2][3]int
		for sb := 0; sb < 2; sb++ {
			for c := 0; c < 3; c++ {
				q[sb][c], _ = quant5(avg[sb][c])
			}
		}
		for c := 0; c < 3; c++ {
			d := q[1][c] - q[0][c]
			if d < -4 || d > 3 {
				return enc, false
			}
		}
		enc.diff = 1
		for c := 0; c < 3; c++ {
			d := q[1][c] - q[0][c]
			enc.bytes012[c] = byte(q[0][c]<<3 | (d & 0x7))
		}
		for sb := 0; sb < 2; sb++ {
			br := expand5(q[sb][0])
			bg := expand5(q[sb][1])
			bb := expand5(q[sb][2])
			enc.sub[sb] = bestTable(blk, enc.subPx[sb], br, bg, bb)
			enc.err += enc.sub[sb].err
		}
		return enc, true
	}

	var q [2][3]int
	var ex [2][3]int
	for sb := 0; sb < 2; sb++ {
		for c := 0; c < 3; c++ {
			q[sb][c], ex[sb][c] = quant4(avg[sb][c])
		}
	}
	for c := 0; c < 3; c++ {
		enc.bytes012[c] = byte(q[0][c]<<4 | q[1][c])
	}
	for sb := 0; sb < 2; sb++ {
		enc.sub[sb] = bestTable(blk, enc.subPx[sb], ex[sb][0], ex[sb][1], ex[sb][2])
		enc.err += enc.sub[sb].err
	}
	return enc, true
}

// encodeETC1Block appends the 8-byte ETC1 encoding of blk to out.
func encodeETC1Block(out []byte, blk *block, q Quality) []byte {
	flips := 1
	if q >= QualityMedium {
		flips = 2
	}

	best := etc1Encoding{err: 1 << 62}
	for flip := 0; flip < flips; flip++ {
		if q >= QualityHigh {
			if enc, ok := tryFlip(blk, flip, true); ok && enc.err < best.err {
				best = enc
			}
		}
		if enc, ok := tryFlip(blk, flip, false); ok && enc.err < best.err {
			best = enc
		}
	}

	b3 := byte(best.sub[0].table<<5 | best.sub[1].table<<2 | best.diff<<1 | best.flip)

	// Pixel index bits live in two 16-bit planes addressed column-major:
	// pixel (x, y) is bit x*4+y.
	var msb, lsb uint16
	for sb := 0; sb < 2; sb++ {
		for i, p := range best.subPx[sb] {
			x := p & 3
			y := p >> 2
			bit := uint(x*4 + y)
			code := best.sub[sb].codes[i]
			msb |= uint16(code>>1) << bit
			lsb |= uint16(code&1) << bit
		}
	}

	return append(out,
		best.bytes012[0], best.bytes012[1], best.bytes012[2], b3,
		byte(msb>>8), byte(msb), byte(lsb>>8), byte(lsb))
}
