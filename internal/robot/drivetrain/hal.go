package drivetrain

// HAL is the drive base's hardware port.
type HAL interface {
	// SetOutputs drives the three kiwi wheels, each in [-1, 1].
	SetOutputs(left, right, bottom float64) error

	// GyroAngle returns the heading in degrees.
	GyroAngle() float64

	ZeroGyro()
}
