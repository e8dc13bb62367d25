package rosmsg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Binary Twist format (56 bytes, little-endian):
//   - Bytes 0-23:  linear.x, linear.y, linear.z   (float64 each)
//   - Bytes 24-47: angular.x, angular.y, angular.z (float64 each)
//   - Bytes 48-55: timestamp (uint64, milliseconds since epoch)

// TwistMessageSize is the fixed size of a binary Twist message in bytes.
const TwistMessageSize = 56

// TwistMessageSizeLegacy is the legacy size without timestamp.
const TwistMessageSizeLegacy = 48

// ErrInvalidMessageSize indicates the payload size doesn't match either
// supported Twist format.
var ErrInvalidMessageSize = errors.New("invalid twist message size")

// EncodeTwist converts a Twist to its binary representation, stamping it
// with the current time.
func EncodeTwist(twist Twist) []byte {
	buf := make([]byte, TwistMessageSize)

	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(twist.Linear.X))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(twist.Linear.Y))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(twist.Linear.Z))

	binary.LittleEndian.PutUint64(buf[24:32], math.Float64bits(twist.Angular.X))
	binary.LittleEndian.PutUint64(buf[32:40], math.Float64bits(twist.Angular.Y))
	binary.LittleEndian.PutUint64(buf[40:48], math.Float64bits(twist.Angular.Z))

	binary.LittleEndian.PutUint64(buf[48:56], uint64(time.Now().UnixMilli()))

	return buf
}

// DecodeTwist parses a binary Twist payload. Both the 48-byte legacy
// format and the 56-byte stamped format are accepted.
func DecodeTwist(data []byte) (Twist, error) {
	if len(data) != TwistMessageSize && len(data) != TwistMessageSizeLegacy {
		return Twist{}, fmt.Errorf("%w: expected %d or %d bytes, got %d bytes",
			ErrInvalidMessageSize, TwistMessageSize, TwistMessageSizeLegacy, len(data))
	}

	var twist Twist

	twist.Linear.X = math.Float64frombits(binary.LittleEndian.Uint64(data[0:8]))
	twist.Linear.Y = math.Float64frombits(binary.LittleEndian.Uint64(data[8:16]))
	twist.Linear.Z = math.Float64frombits(binary.LittleEndian.Uint64(data[16:24]))

	twist.Angular.X = math.Float64frombits(binary.LittleEndian.Uint64(data[24:32]))
	twist.Angular.Y = math.Float64frombits(binary.LittleEndian.Uint64(data[32:40]))
	twist.Angular.Z = math.Float64frombits(binary.LittleEndian.Uint64(data[40:48]))

	return twist, nil
}
