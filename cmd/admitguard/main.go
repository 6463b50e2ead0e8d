// Package main is the AdmitGuard API binary.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// @title AdmitGuard API
// @version 1.0.0
// @description Admissions tracking: batches, candidates and reviews
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var rootCmd = &cobra.Command{
	Use:   "admitguard",
	Short: "AdmitGuard admissions API",
	Long:  "AdmitGuard tracks admission batches, their candidates and admin/manager review decisions.",
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
