package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
