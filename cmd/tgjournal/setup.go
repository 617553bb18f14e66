package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/edgard/tgjournal/internal/config"
)

const probeFileName = ".tgjournal-write-test"

// runSetup asks for the bot token and the save directory, checks that the
// directory is writable and writes the configuration file to path.
func runSetup(in io.Reader, out io.Writer, path string) error {
	scanner := bufio.NewScanner(in)
	prompt := func(question string) (string, error) {
		fmt.Fprint(out, question)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("failed to read input: %w", err)
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	fmt.Fprintln(out, "Welcome to tgjournal!")
	fmt.Fprintln(out, "\nFirst-time setup:")

	if _, err := os.Stat(path); err == nil {
		answer, err := prompt(fmt.Sprintf("\n%s already exists. Overwrite it? [y/N]: ", path))
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Fprintln(out, "Setup cancelled, existing configuration kept.")
			return nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check config file %s: %w", path, err)
	}

	var token string
	for token == "" {
		var err error
		if token, err = prompt("\nPlease enter your Telegram bot token: "); err != nil {
			return err
		}
	}

	var saveDir string
	for {
		answer, err := prompt("\nEnter the full path where markdown files should be saved: ")
		if err != nil {
			return err
		}
		dir := config.ExpandHome(answer)
		if err := checkWritableDir(dir); err != nil {
			fmt.Fprintf(out, "Error: Could not write to directory: %v\n", err)
			continue
		}
		saveDir = dir
		break
	}

	cfg := config.Defaults()
	cfg.Telegram.Token = token
	cfg.Journal.SaveDirectory = saveDir
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nConfiguration saved to %s. Start the bot with: tgjournal --config %s\n", path, path)
	return nil
}

// checkWritableDir creates dir if needed and proves it is writable by
// creating and removing a probe file.
func checkWritableDir(dir string) error {
	if dir == "" {
		return errors.New("path is empty")
	}
	if !filepath.IsAbs(dir) {
		return fmt.Errorf("%q is not an absolute path", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	probe := filepath.Join(dir, probeFileName)
	f, err := os.OpenFile(probe, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(probe)
}
