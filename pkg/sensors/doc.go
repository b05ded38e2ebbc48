// ABOUTME: Sensor HAL package for the board accelerometer
// ABOUTME: Provides the poll device and sysfs and I2C accelerometer variants
// Package sensors provides the sensor poll device.
//
// A Device owns a fixed set of Sensor values keyed by handle. Two
// accelerometer variants exist: SysfsAccelerometer reads the kernel
// driver's all_axis_g node, I2CAccelerometer talks to the chip with periph.
//
// Example:
//
//	acc := sensors.NewSysfsAccelerometer("", log)
//	dev, err := sensors.NewDevice([]sensors.Sensor{acc})
//	err = dev.Open()
//	n, err := dev.Poll(ctx, events)
package sensors
