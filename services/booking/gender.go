package booking

import (
	"fmt"

	"mindwell/models"
)

// ValidateGenderMatch allows a booking only between a user and a counselor sharing the same
// recorded gender. Comparison is exact; unset or unrecognised values never match.
func ValidateGenderMatch(userGender, counselorGender models.Gender) (models.GenderMatch, error) {
	m := models.GenderMatch{
		UserGender:      userGender,
		CounselorGender: counselorGender,
		IsMatched:       userGender == counselorGender,
	}
	if !m.IsMatched || !userGender.IsKnown() {
		return m, fmt.Errorf("%w (user %q, counselor %q)", ErrGenderMismatch, userGender, counselorGender)
	}
	return m, nil
}
