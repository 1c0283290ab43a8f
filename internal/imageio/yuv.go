package imageio

import "fmt"

// BT.601 RGB -> YCbCr conversion in 16-bit fixed point, studio range:
// Y in [16, 235], Cb/Cr centered on 128.
const (
	yuvHalf = 1 << 15

	kRY = 16839 // 0.2569 * (1 << 16)
	kGY = 33059 // 0.5044 * (1 << 16)
	kBY = 6420  // 0.0979 * (1 << 16)

	kRU = -9719  // -0.1483 * (1 << 16)
	kGU = -19081 // -0.2911 * (1 << 16)
	kBU = 28800  //  0.4394 * (1 << 16)

	kRV = 28800  //  0.4394 * (1 << 16)
	kGV = -24116 // -0.3679 * (1 << 16)
	kBV = -4684  // -0.0715 * (1 << 16)
)

func rgbToY(r, g, b int) byte {
	return byte((kRY*r + kGY*g + kBY*b + (16 << 16) + yuvHalf) >> 16)
}

func rgbToCb(r, g, b int) byte {
	return byte((kRU*r + kGU*g + kBU*b + (128 << 16) + yuvHalf) >> 16)
}

func rgbToCr(r, g, b int) byte {
	return byte((kRV*r + kGV*g + kBV*b + (128 << 16) + yuvHalf) >> 16)
}

// ConvertYUVA420 converts an RGBA32 image to planar YCbCrA 4:2:0. Chroma
// is the rounded average of each 2×2 pixel quad; odd right/bottom edges
// replicate the last column/row. The alpha plane is always populated;
// callers that encode without alpha simply ignore it.
func ConvertYUVA420(src *Image) (*Image, error) {
	if src.Format != FormatRGBA32 {
		return nil, fmt.Errorf("imageio: yuva conversion wants RGBA32")
	}
	w, h := src.Width, src.Height
	dst, err := New(w, h, FormatYUVA420P)
	if err != nil {
		return nil, err
	}

	pix := src.Data(0)
	yp := dst.Data(0)
	ap := dst.Data(3)
	for row := 0; row < h; row++ {
		si := row * w * 4
		di := row * w
		for col := 0; col < w; col++ {
			r := int(pix[si])
			g := int(pix[si+1])
			b := int(pix[si+2])
			yp[di] = rgbToY(r, g, b)
			ap[di] = pix[si+3]
			si += 4
			di++
		}
	}

	cw, ch := chromaDim(w), chromaDim(h)
	cbp := dst.Data(1)
	crp := dst.Data(2)
	for cy := 0; cy < ch; cy++ {
		y0 := cy * 2
		y1 := y0 + 1
		if y1 >= h {
			y1 = y0
		}
		for cx := 0; cx < cw; cx++ {
			x0 := cx * 2
			x1 := x0 + 1
			if x1 >= w {
				x1 = x0
			}
			var r, g, b int
			for _, p := range [4]int{
				(y0*w + x0) * 4,
				(y0*w + x1) * 4,
				(y1*w + x0) * 4,
				(y1*w + x1) * 4,
			} {
				r += int(pix[p])
				g += int(pix[p+1])
				b += int(pix[p+2])
			}
			r = (r + 2) >> 2
			g = (g + 2) >> 2
			b = (b + 2) >> 2
			ci := cy*cw + cx
			cbp[ci] = rgbToCb(r, g, b)
			crp[ci] = rgbToCr(r, g, b)
		}
	}
	return dst, nil
}
