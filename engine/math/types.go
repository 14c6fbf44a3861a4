package math

/** @brief A 3-element vector. */
type Vec3 struct {
	X, Y, Z float32
}

/** @brief Euler rotation in radians, applied in X, Y, Z order. */
type Euler struct {
	X, Y, Z float32
}

/** @brief A 24-bit RGB color packed as 0xRRGGBB. */
type Color uint32
