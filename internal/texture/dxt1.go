package texture

// DXT1 (BC1) block encoding: two RGB565 endpoints plus sixteen 2-bit
// palette indices. Non-flat blocks are emitted with c0 > c1 so they decode
// in 4-color mode. Flat blocks store c0 == c1 with every index 0, which
// decodes to the endpoint color; the transparent index is never used.

// quantize/expand between 8-bit and 565 component precision.
func to565(r, g, b int) uint16 {
	return uint16((r>>3)<<11 | (g>>2)<<5 | b>>3)
}

func from565(c uint16) (r, g, b int) {
	r = int(c>>11) & 0x1f
	g = int(c>>5) & 0x3f
	b = int(c) & 0x1f
	return r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2
}

// refineIterations returns the endpoint refinement passes per quality.
func refineIterations(q Quality) int {
	switch q {
	case QualityHigh:
		return 3
	case QualityMedium:
		return 1
	default:
		return 0
	}
}

// encodeDXT1Block appends the 8-byte BC1 encoding of blk to out.
func encodeDXT1Block(out []byte, blk *block, q Quality) []byte {
	minC, maxC := boundingBox(blk)

	c0 := to565(maxC[0], maxC[1], maxC[2])
	c1 := to565(minC[0], minC[1], minC[2])

	if c0 == c1 {
		// Flat block: index 0 everywhere decodes to the endpoint color.
		return append(out,
			byte(c0), byte(c0>>8),
			byte(c1), byte(c1>>8),
			0, 0, 0, 0)
	}

	for i := 0; i < refineIterations(q); i++ {
		idx := matchIndices(blk, c0, c1)
		r0, r1, ok := solveEndpoints(blk, idx)
		if !ok || (r0 == c0 && r1 == c1) {
			break
		}
		c0, c1 = r0, r1
		if c0 == c1 {
			break
		}
	}

	if c0 < c1 {
		c0, c1 = c1, c0
	}
	if c0 == c1 {
		// Refinement collapsed the endpoints; emit a flat block with
		// index 0 everywhere, which decodes to the endpoint color.
		return append(out,
			byte(c0), byte(c0>>8),
			byte(c1), byte(c1>>8),
			0, 0, 0, 0)
	}
	idx := matchIndices(blk, c0, c1)

	var bits uint32
	for i, v := range idx {
		bits |= uint32(v) << (2 * i)
	}
	return append(out,
		byte(c0), byte(c0>>8),
		byte(c1), byte(c1>>8),
		byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
}

// boundingBox returns the per-channel min and max of the block, inset by
// 1/16th of the range to reduce the impact of outlier pixels.
func boundingBox(blk *block) (minC, maxC [3]int) {
	minC = [3]int{255, 255, 255}
	for i := 0; i < 16; i++ {
		px := [3]int{blk.r[i], blk.g[i], blk.b[i]}
		for c := 0; c < 3; c++ {
			if px[c] < minC[c] {
				minC[c] = px[c]
			}
			if px[c] > maxC[c] {
				maxC[c] = px[c]
			}
		}
	}
	for c := 0; c < 3; c++ {
		inset := (maxC[c] - minC[c]) >> 4
		minC[c] = clamp255(minC[c] + inset)
		maxC[c] = clamp255(maxC[c] - inset)
	}
	return minC, maxC
}

// palette expands the four decode colors of an endpoint pair.
func palette(c0, c1 uint16) (p [4][3]int) {
	r0, g0, b0 := from565(c0)
	r1, g1, b1 := from565(c1)
	p[0] = [3]int{r0, g0, b0}
	p[1] = [3]int{r1, g1, b1}
	p[2] = [3]int{(2*r0 + r1 + 1) / 3, (2*g0 + g1 + 1) / 3, (2*b0 + b1 + 1) / 3}
	p[3] = [3]int{(r0 + 2*r1 + 1) / 3, (g0 + 2*g1 + 1) / 3, (b0 + 2*b1 + 1) / 3}
	return p
}

// matchIndices picks, for every pixel, the palette entry with the smallest
// squared RGB distance.
func matchIndices(blk *block, c0, c1 uint16) (idx [16]int) {
	p := palette(c0, c1)
	for i := 0; i < 16; i++ {
		best := 0
		bestErr := 1 << 30
		for j := 0; j < 4; j++ {
			dr := blk.r[i] - p[j][0]
			dg := blk.g[i] - p[j][1]
			db := blk.b[i] - p[j][2]
			e := dr*dr + dg*dg + db*db
			if e < bestErr {
				bestErr = e
				best = j
			}
		}
		idx[i] = best
	}
	return idx
}

// solveEndpoints recomputes the endpoint pair by least squares given an
// index assignment. Interpolated entries weight the endpoints 2/3 and 1/3.
// Reports ok=false when the assignment degenerates (all pixels on one
// interpolant), in which case the caller keeps its current endpoints.
func solveEndpoints(blk *block, idx [16]int) (uint16, uint16, bool) {
	// Weights of (endpoint0, endpoint1) per palette index, in thirds.
	w0 := [4]float64{3, 0, 2, 1}
	w1 := [4]float64{0, 3, 1, 2}

	var a00, a01, a11 float64
	var bx0, bx1 [3]float64
	for i := 0; i < 16; i++ {
		u := w0[idx[i]] / 3
		v := w1[idx[i]] / 3
		a00 += u * u
		a01 += u * v
		a11 += v * v
		px := [3]float64{float64(blk.r[i]), float64(blk.g[i]), float64(blk.b[i])}
		for c := 0; c < 3; c++ {
			bx0[c] += u * px[c]
			bx1[c] += v * px[c]
		}
	}
	det := a00*a11 - a01*a01
	if det == 0 {
		return 0, 0, false
	}
	var e0, e1 [3]int
	for c := 0; c < 3; c++ {
		e0[c] = clamp255(int((a11*bx0[c]-a01*bx1[c])/det + 0.5))
		e1[c] = clamp255(int((a00*bx1[c]-a01*bx0[c])/det + 0.5))
	}
	return to565(e0[0], e0[1], e0[2]), to565(e1[0], e1[1], e1[2]), true
}
