package querycourse

import "math"

// RoundDigits rounds num half away from zero to the given number of decimal digits.
func RoundDigits(num float64, digits int) float64 {
	base := math.Pow(10, float64(digits))
	return math.Round(num*base) / base
}

// ChoiceRate is the ratio of applicants to seats, rounded to 2 digits.
func ChoiceRate(studentCount int, studentLimit float64) float64 {
	return RoundDigits(float64(studentCount)/studentLimit, 2)
}

// AdmissionRate estimates the chance (0-100) of getting a seat for an
// already rounded choice rate.
func AdmissionRate(choiceRate float64) float64 {
	if choiceRate <= 0 {
		return 100
	}
	rate := 100 / choiceRate
	if rate > 100 {
		rate = 100
	}
	return RoundDigits(rate, 2)
}
