package domain

import "fmt"

// ValidateNRIC checks the identity number format: nine characters, a leading
// 'S' or 'T', seven digits and one trailing letter.
func ValidateNRIC(nric string) error {
	if len(nric) != 9 {
		return fmt.Errorf("nric %q must be 9 characters", nric)
	}
	if nric[0] != 'S' && nric[0] != 'T' {
		return fmt.Errorf("nric %q must start with S or T", nric)
	}
	for i := 1; i < 8; i++ {
		if nric[i] < '0' || nric[i] > '9' {
			return fmt.Errorf("nric %q must have 7 digits after the prefix", nric)
		}
	}
	last := nric[8]
	if (last < 'A' || last > 'Z') && (last < 'a' || last > 'z') {
		return fmt.Errorf("nric %q must end with a letter", nric)
	}
	return nil
}
