// Command rexgrep is a thin grep-like front-end over the rex engine. It
// owns line/file iteration, flag parsing, and output formatting; the
// matching decision itself is entirely rex.Regexp.IsMatch — this
// command holds no pattern-matching logic of its own.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/coregx/rex"
	"github.com/coregx/rex/cmd/rexgrep/internal/prescreen"
)

type patternList []string

func (p *patternList) String() string { return fmt.Sprint([]string(*p)) }

func (p *patternList) Set(s string) error {
	*p = append(*p, s)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rexgrep", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var patterns patternList
	countOnly := fs.Bool("c", false, "print only a count of matching lines per file")
	ignoreCase := fs.Bool("i", false, "case-insensitive match (ASCII only)")
	invert := fs.Bool("v", false, "invert match: select non-matching lines")
	showFilename := fs.Bool("H", false, "always print filename")
	hideFilename := fs.Bool("h", false, "never print filename")
	lineNumber := fs.Bool("n", false, "print line number")
	fs.Var(&patterns, "e", "pattern to match (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showFilename && *hideFilename {
		fmt.Fprintln(stderr, "rexgrep: -H and -h are mutually exclusive")
		return 2
	}

	rest := fs.Args()
	if len(patterns) == 0 {
		if len(rest) == 0 {
			fmt.Fprintln(stderr, "rexgrep: no pattern given")
			return 2
		}
		patterns = append(patterns, rest[0])
		rest = rest[1:]
	}

	regexes := make([]*rex.Regexp, 0, len(patterns))
	for _, pat := range patterns {
		re, err := rex.Compile(pat, *ignoreCase, *invert)
		if err != nil {
			fmt.Fprintf(stderr, "rexgrep: %s\n", err)
			return 2
		}
		regexes = append(regexes, re)
	}
	// The literal prescreen only soundly skips a line when "no pattern
	// matched" and "line is uninteresting" coincide; -v inverts that, so
	// a line missing every literal is exactly the kind -v wants printed.
	// Build also declines under -i, where exact-byte literals would
	// silently skip mixed-case matches.
	var screen *prescreen.Screen
	if !*invert {
		screen = prescreen.Build(patterns, *ignoreCase)
	}

	files := rest
	multi := len(files) > 1 || *showFilename
	if *hideFilename {
		multi = false
	}

	matchedAny := false
	fatal := false
	if len(files) == 0 {
		if !scanReader(stdin, "", false, *countOnly, *lineNumber, regexes, screen, stdout, stderr, &matchedAny) {
			fatal = true
		}
	} else {
		for _, name := range files {
			f, err := os.Open(name)
			if err != nil {
				fmt.Fprintf(stderr, "rexgrep: %s: %s\n", name, err)
				fatal = true
				continue
			}
			ok := scanReader(f, name, multi, *countOnly, *lineNumber, regexes, screen, stdout, stderr, &matchedAny)
			f.Close()
			if !ok {
				fatal = true
			}
		}
	}

	if fatal {
		return 2
	}
	if matchedAny {
		return 0
	}
	return 1
}

// scanReader runs every pattern against each line of r in turn, applying
// the Aho-Corasick prescreen (when one was built) before falling back to
// each pattern's full IsMatch. An eval error is reported on stderr and
// skips that pattern for that line — it is recoverable, so it does not
// flip the exit code the way an I/O error does. A false return means
// the reader itself failed.
func scanReader(r io.Reader, name string, withName, countOnly, withLineNo bool, regexes []*rex.Regexp, screen *prescreen.Screen, w, errw io.Writer, matchedAny *bool) bool {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	count := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if screen != nil && !screen.MayMatch(line) {
			continue
		}
		matched := false
		for _, re := range regexes {
			m, err := re.IsMatch(line)
			if err != nil {
				fmt.Fprintf(errw, "rexgrep: eval error on line %d of %q: %s\n", lineNo, name, err)
				continue
			}
			if m {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		*matchedAny = true
		count++
		if countOnly {
			continue
		}
		printLine(w, name, withName, lineNo, withLineNo, line)
	}
	if countOnly {
		if withName && name != "" {
			fmt.Fprintf(w, "%s:%d\n", name, count)
		} else {
			fmt.Fprintf(w, "%d\n", count)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(errw, "rexgrep: %s: %s\n", name, err)
		return false
	}
	return true
}

func printLine(w io.Writer, name string, withName bool, lineNo int, withLineNo bool, line string) {
	if withName && name != "" {
		fmt.Fprintf(w, "%s:", name)
	}
	if withLineNo {
		fmt.Fprintf(w, "%d:", lineNo)
	}
	fmt.Fprintln(w, line)
}
