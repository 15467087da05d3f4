// Package prompt implements the terminal menu and file name dialogs.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/junsooki/dvsview/internal/config"
)

// RecordingExt is the extension every recording must carry.
const RecordingExt = ".raw"

var (
	ErrBadFileName = errors.New("file name must end with " + RecordingExt)
	ErrCancelled   = errors.New("cancelled")
	ErrInvalid     = errors.New("invalid choice")
)

// ValidateFileName checks a recording name typed by the user.
func ValidateFileName(name string) error {
	if len(name) <= len(RecordingExt) || !strings.HasSuffix(name, RecordingExt) {
		return ErrBadFileName
	}
	return nil
}

// Prompter reads whitespace-separated answers from in and writes questions to out.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	sc := bufio.NewScanner(in)
	sc.Split(bufio.ScanWords)
	return &Prompter{in: sc, out: out}
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return p.in.Text(), nil
}

// Export selects how a recording is turned into PNGs.
type Export struct {
	Count    int
	Interval int64
}

// Menu asks which session to run. For exports it also asks for the
// spacing of the images.
func (p *Prompter) Menu() (string, *Export, error) {
	fmt.Fprint(p.out, "Select an option:\n"+
		"1 - Open camera and record events\n"+
		"2 - Read from a recorded file\n"+
		"3 - Save timestamp into PNG\n")
	choice, err := p.ask("Enter your choice: ")
	if err != nil {
		return "", nil, err
	}
	switch choice {
	case "1":
		return config.ModeRecord, nil, nil
	case "2":
		return config.ModeReplay, nil, nil
	case "3":
		exp, err := p.exportMenu()
		if err != nil {
			return "", nil, err
		}
		return config.ModeExport, exp, nil
	}
	return "", nil, fmt.Errorf("%w: %q", ErrInvalid, choice)
}

func (p *Prompter) exportMenu() (*Export, error) {
	fmt.Fprint(p.out, "Select an option:\n"+
		"1 - Set TIMESTAMP for saving\n"+
		"2 - Set PHOTO NUMBER for saving\n")
	choice, err := p.ask("Enter your choice: ")
	if err != nil {
		return nil, err
	}
	switch choice {
	case "1":
		n, err := p.PositiveInt("Enter the timestamp interval (us) between PNGs: ", "TIMESTAMPs")
		if err != nil {
			return nil, err
		}
		return &Export{Interval: int64(n)}, nil
	case "2":
		n, err := p.PositiveInt("Enter how many PNGs you want to save: ", "PNGs")
		if err != nil {
			return nil, err
		}
		return &Export{Count: n}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalid, choice)
}

// PositiveInt asks until a positive integer is entered and confirmed.
func (p *Prompter) PositiveInt(question, unit string) (int, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n <= 0 {
			fmt.Fprintln(p.out, "Invalid input! Please enter a positive integer.")
			continue
		}
		confirm, err := p.ask(fmt.Sprintf("You entered %d %s. Confirm? (y/n): ", n, unit))
		if err != nil {
			return 0, err
		}
		if strings.EqualFold(confirm, "y") {
			return n, nil
		}
		fmt.Fprintln(p.out, "Re-enter the number.")
	}
}

// NewRecording asks for the name of a recording to create in dir. An
// existing file can be overwritten, the name re-entered, or the dialog
// cancelled.
func (p *Prompter) NewRecording(dir string) (string, error) {
	for {
		name, err := p.ask("Enter a file name (must end with " + RecordingExt + "): ")
		if err != nil {
			return "", err
		}
		if err := ValidateFileName(name); err != nil {
			fmt.Fprintf(p.out, "Invalid file name! It must end with '%s'\n", RecordingExt)
			continue
		}
		path := filepath.Join(dir, name)
		if !exists(path) {
			return path, nil
		}
		choice, err := p.ask("File already exists! Overwrite (o), re-enter (r), or cancel (c): ")
		if err != nil {
			return "", err
		}
		switch strings.ToLower(choice) {
		case "o":
			return path, nil
		case "r":
			continue
		default:
			return "", ErrCancelled
		}
	}
}

// ExistingRecording asks for the name of a recording in dir to read.
func (p *Prompter) ExistingRecording(dir string) (string, error) {
	for {
		name, err := p.ask("Enter the file name to read (must end with " + RecordingExt + "): ")
		if err != nil {
			return "", err
		}
		if err := ValidateFileName(name); err != nil {
			fmt.Fprintf(p.out, "Invalid file name! It must end with '%s'\n", RecordingExt)
			continue
		}
		path := filepath.Join(dir, name)
		if exists(path) {
			return path, nil
		}
		choice, err := p.ask("File does not exist! Re-enter (r) or cancel (c): ")
		if err != nil {
			return "", err
		}
		if strings.EqualFold(choice, "r") {
			continue
		}
		return "", ErrCancelled
	}
}

// RecordingPath resolves a name given on the command line for a new recording.
func RecordingPath(dir, name string, overwrite bool) (string, error) {
	if err := ValidateFileName(name); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if exists(path) && !overwrite {
		return "", fmt.Errorf("%s already exists (use -overwrite)", path)
	}
	return path, nil
}

// ExistingPath resolves a name given on the command line for reading.
func ExistingPath(dir, name string) (string, error) {
	if err := ValidateFileName(name); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if !exists(path) {
		return "", fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return path, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
