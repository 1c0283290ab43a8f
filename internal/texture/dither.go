package texture

// dither565 diffuses the error of quantizing each pixel to the RGB565 grid
// across its right and lower neighbours with Floyd-Steinberg weights
// (7/16, 3/16, 5/16, 1/16). Alpha passes through untouched. Pixels already
// on the grid are unchanged, so flat regions stay flat.
func dither565(pix []byte, w, h int) {
	bits := [3]uint{5, 6, 5}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := (y*w + x) * 4
			for c := 0; c < 3; c++ {
				old := int(pix[p+c])
				n := bits[c]
				q := old >> (8 - n)
				quantized := q<<(8-n) | q>>(2*n-8)
				pix[p+c] = byte(quantized)
				diff := old - quantized
				if diff == 0 {
					continue
				}
				spread := func(dx, dy, weight int) {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny >= h {
						return
					}
					np := (ny*w+nx)*4 + c
					pix[np] = byte(clamp255(int(pix[np]) + diff*weight/16))
				}
				spread(1, 0, 7)
				spread(-1, 1, 3)
				spread(0, 1, 5)
				spread(1, 1, 1)
			}
		}
	}
}
