package blend

// div255 returns x/255 rounded to nearest, without a division (Jim Blinn's
// formula). Valid for x in [0, 255*255].
func div255(x uint16) uint16 {
	t := x + 128
	return (t + (t >> 8)) >> 8
}

// mulDiv255 returns a*b/255.
func mulDiv255(a, b byte) byte {
	return byte(div255(uint16(a) * uint16(b)))
}

func inv255(x byte) byte {
	return 255 - x
}

func addClamp(a, b byte) byte {
	if sum := uint16(a) + uint16(b); sum < 255 {
		return byte(sum)
	}
	return 255
}

func subClamp(a, b byte) byte {
	if b >= a {
		return 0
	}
	return a - b
}
