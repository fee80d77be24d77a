package logger

import (
	"fmt"
	"time"
)

// ANSI color codes for console output.
const (
	colReset   = "\033[0m"
	colGray    = "\033[90m"
	colGreen   = "\033[32m"
	colYellow  = "\033[33m"
	colRed     = "\033[31m"
	colCyan    = "\033[36m"
	colMagenta = "\033[35m"
	colBold    = "\033[1m"
)

func timestamp() string {
	return time.Now().Format("15:04:05")
}

func line(color, level, tag, msg string) {
	fmt.Printf("%s%s%s %s%-5s%s %s[%s]%s %s\n",
		colGray, timestamp(), colReset,
		color, level, colReset,
		colCyan, tag, colReset,
		msg)
}

// Info logs an informational message under a component tag.
func Info(tag, msg string) {
	line(colReset, "INFO", tag, msg)
}

// Success logs a completed operation.
func Success(tag, msg string) {
	line(colGreen, "OK", tag, msg)
}

// Warn logs a recoverable problem.
func Warn(tag, msg string) {
	line(colYellow, "WARN", tag, msg)
}

// Error logs a failure.
func Error(tag, msg string) {
	line(colRed, "ERROR", tag, msg)
}

// Banner prints the startup banner with the build version.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Printf("%s%s", colMagenta, colBold)
	fmt.Println(` _____ _   _ _____     ___       _       _`)
	fmt.Println(`| ____| | | | ____|   |_ _|_ __ | |_ ___| |`)
	fmt.Println(`|  _| | | | |  _| _____| || '_ \| __/ _ \ |`)
	fmt.Println(`| |___ \ V /| |__|_____| || | | | ||  __/ |`)
	fmt.Println(`|_____| \_/ |_____|   |___|_| |_|\__\___|_|`)
	fmt.Printf("%s  market intelligence engine  %s%s%s\n\n", colReset+colGray, colReset, version, colReset)
}

// Section prints a visual divider with a title, used between scan phases.
func Section(title string) {
	fmt.Printf("\n%s%s── %s %s%s\n", colBold, colCyan, title, "──────────────", colReset)
}

// Stats prints a single key/value statistic line.
func Stats(key string, value interface{}) {
	fmt.Printf("  %s%-24s%s %v\n", colGray, key, colReset, value)
}
