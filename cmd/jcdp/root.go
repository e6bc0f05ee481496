package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logger = logrus.StandardLogger()

var rootCmd = &cobra.Command{
	Use:   "jcdp",
	Short: "Bracket and schedule Jacobian elimination chains",
	Long: `jcdp solves the Jacobian chain bracketing and scheduling problem.

It brackets a chain's elimination order with branch-and-bound search and
schedules the resulting sequence across a fixed number of machines,
comparing a dynamic-programming seed against the full search.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
