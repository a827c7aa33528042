// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

// OTPEmailData is the localized content of a passcode email.
type OTPEmailData struct {
	Heading  string
	Greeting string
	Intro    string
	OTP      string
	Validity string
	Ignore   string
	Footer   string
}
