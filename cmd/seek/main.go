package main

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	err := Execute()
	switch {
	case err == nil:
		os.Exit(0)
	case errors.Is(err, errNoMatch):
		os.Exit(1)
	default:
		if !errors.Is(err, errSubjects) {
			logrus.Error(err)
		}
		os.Exit(2)
	}
}
