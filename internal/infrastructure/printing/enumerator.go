package printing

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"go.uber.org/zap"
)

// CUPS printer-state codes
const (
	cupsStateIdle       = 3
	cupsStateProcessing = 4
	cupsStateStopped    = 5
)

var mediaSizePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)x(\d+(?:\.\d+)?)(mm|in)`)

// CUPSEnumerator lists printers with lpstat and lpoptions
type CUPSEnumerator struct {
	runner        CommandRunner
	lpstatPath    string
	lpoptionsPath string
	logger        *zap.Logger
}

// CUPSEnumeratorConfig contains configuration for the CUPS enumerator
type CUPSEnumeratorConfig struct {
	Runner        CommandRunner
	LPStatPath    string
	LPOptionsPath string
	Logger        *zap.Logger
}

// NewCUPSEnumerator creates a CUPSEnumerator
func NewCUPSEnumerator(config CUPSEnumeratorConfig) *CUPSEnumerator {
	e := &CUPSEnumerator{
		runner:        config.Runner,
		lpstatPath:    config.LPStatPath,
		lpoptionsPath: config.LPOptionsPath,
		logger:        config.Logger,
	}
	if e.runner == nil {
		e.runner = ExecRunner{}
	}
	if e.lpstatPath == "" {
		e.lpstatPath = "lpstat"
	}
	if e.lpoptionsPath == "" {
		e.lpoptionsPath = "lpoptions"
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// ListPrinters enumerates the CUPS destinations. Printers whose options
// cannot be read are still listed.
func (e *CUPSEnumerator) ListPrinters(ctx context.Context) ([]printing.PrinterDescriptor, error) {
	out, err := e.runner.Run(ctx, e.lpstatPath, "-l", "-p")
	if err != nil {
		if isNoDestinations(out, err) {
			return []printing.PrinterDescriptor{}, nil
		}
		return nil, err
	}
	printers := parseLPStat(out)

	defaultName := ""
	if out, err := e.runner.Run(ctx, e.lpstatPath, "-d"); err == nil {
		defaultName = parseDefaultDestination(out)
	} else {
		e.logger.Debug("no default destination", zap.Error(err))
	}

	for i := range printers {
		p := &printers[i]
		p.IsDefault = p.Name == defaultName

		opts, err := e.runner.Run(ctx, e.lpoptionsPath, "-p", p.Name)
		if err != nil {
			e.logger.Warn("failed to read printer options",
				zap.String("printer", p.Name),
				zap.Error(err),
			)
			continue
		}
		p.Options = parseLPOptions(opts)
		if p.Description == "" {
			p.Description = p.Options["printer-info"]
		}
		if p.Location == "" {
			p.Location = p.Options["printer-location"]
		}
		if info := p.Options["printer-info"]; info != "" {
			p.DisplayName = info
		}
		media := firstNonEmpty(p.Options["media"], p.Options["media-default"], p.Options["PageSize"])
		p.PaperSizeWidth = mediaWidthTenthsMM(media)
		p.HasPaperSize = mediaSizePattern.MatchString(media)
	}

	return printers, nil
}

// parseLPStat reads `lpstat -l -p` output
func parseLPStat(out []byte) []printing.PrinterDescriptor {
	var printers []printing.PrinterDescriptor
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(line, "printer ") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			printers = append(printers, printing.PrinterDescriptor{
				Name:        fields[1],
				DisplayName: fields[1],
				StatusCode:  stateFromLPStat(line),
			})
			continue
		}

		if len(printers) == 0 || line == trimmed {
			continue
		}
		current := &printers[len(printers)-1]
		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		switch key {
		case "Description":
			current.Description = strings.TrimSpace(value)
		case "Location":
			current.Location = strings.TrimSpace(value)
		}
	}
	return printers
}

func stateFromLPStat(line string) int {
	switch {
	case strings.Contains(line, "disabled"):
		return cupsStateStopped
	case strings.Contains(line, "now printing"):
		return cupsStateProcessing
	default:
		return cupsStateIdle
	}
}

// parseDefaultDestination reads `lpstat -d` output
func parseDefaultDestination(out []byte) string {
	line := strings.TrimSpace(string(out))
	_, name, ok := strings.Cut(line, "system default destination:")
	if !ok {
		return ""
	}
	return strings.TrimSpace(name)
}

// parseLPOptions reads `lpoptions -p` output: space separated key=value
// pairs whose values may be single or double quoted
func parseLPOptions(out []byte) map[string]string {
	opts := make(map[string]string)
	s := strings.TrimSpace(string(out))

	for len(s) > 0 {
		s = strings.TrimLeft(s, " \t\n")
		eq := strings.IndexAny(s, "= \t\n")
		if eq == -1 {
			opts[s] = ""
			break
		}
		key := s[:eq]
		if s[eq] != '=' {
			opts[key] = ""
			s = s[eq:]
			continue
		}
		s = s[eq+1:]

		var value string
		if len(s) > 0 && (s[0] == '\'' || s[0] == '"') {
			quote := s[0]
			end := strings.IndexByte(s[1:], quote)
			if end == -1 {
				value, s = s[1:], ""
			} else {
				value, s = s[1:end+1], s[end+2:]
			}
		} else {
			end := strings.IndexAny(s, " \t\n")
			if end == -1 {
				value, s = s, ""
			} else {
				value, s = s[:end], s[end:]
			}
		}
		if key != "" {
			opts[key] = value
		}
	}
	return opts
}

// mediaWidthTenthsMM extracts the width from a PWG or Custom media name
// such as iso_a4_210x297mm or oe_4x6-label_4x6in. Unknown media yield 0.
func mediaWidthTenthsMM(media string) int {
	m := mediaSizePattern.FindStringSubmatch(media)
	if m == nil {
		return 0
	}
	width, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if m[3] == "in" {
		width *= 25.4
	}
	return int(width*10 + 0.5)
}

func isNoDestinations(out []byte, err error) bool {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && strings.Contains(cmdErr.Output, "No destinations added") {
		return true
	}
	return bytes.Contains(out, []byte("No destinations added"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// StaticEnumerator returns a fixed printer list
type StaticEnumerator struct {
	printers []printing.PrinterDescriptor
}

// NewStaticEnumerator creates a StaticEnumerator
func NewStaticEnumerator(printers []printing.PrinterDescriptor) *StaticEnumerator {
	return &StaticEnumerator{printers: printers}
}

// ListPrinters returns a copy of the configured printers
func (e *StaticEnumerator) ListPrinters(context.Context) ([]printing.PrinterDescriptor, error) {
	out := make([]printing.PrinterDescriptor, len(e.printers))
	copy(out, e.printers)
	return out, nil
}
