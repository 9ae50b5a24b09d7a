package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/zephyrtronium/flatexpr"
)

func main() {
	log.SetFlags(0)
	var (
		inname, verb, tname string
		with                [][2]string
		nl, echo, list      bool
		left                bool
		prec                int
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		with = append(with, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.StringVar(&verb, "fmt", "%v", "result formatting string")
	flag.Func("given", "name=value variable definition (any number of times)", addwith)
	flag.IntVar(&prec, "p", 64, "precision of calculations in bits")
	flag.BoolVar(&nl, "n", false, "parse separate input lines as separate expressions")
	flag.BoolVar(&echo, "echo", false, "print expressions with full bracketing")
	flag.BoolVar(&list, "list", false, "print compiled instructions")
	flag.StringVar(&tname, "table", "", "YAML operator table file")
	flag.BoolVar(&left, "left", false, "group operators of equal priority from the left")
	flag.Parse()
	if prec <= 0 {
		log.Fatalf("precision (%d) must be positive", prec)
	}

	reg, err := registry(tname, uint(prec), left)
	if err != nil {
		log.Fatal(err)
	}

	var srcs []string
	text, err := infile(inname, flag.NArg() == 0)
	if err != nil {
		log.Fatal(err)
	}
	if text != "" {
		if nl {
			srcs = append(srcs, lines(text)...)
		} else {
			srcs = append(srcs, text)
		}
	}
	srcs = append(srcs, flag.Args()...)

	vars := make(map[string]flatexpr.Value, len(with))
	for _, d := range with {
		nm := d[0]
		vl := d[1]
		r, err := flatexpr.Eval(reg, vl, vars)
		if err != nil {
			log.Fatalf("setting %s: %v", nm, err)
		}
		vars[nm] = r
	}

	var p []*flatexpr.Expr
	for _, src := range srcs {
		a, err := reg.Parse(src)
		if err != nil {
			log.Fatal(err)
		}
		p = append(p, a)
	}

	verb += "\n"
	for _, a := range p {
		if list {
			fmt.Print(a.Listing())
		}
		if echo {
			fmt.Printf("%v : ", a)
		}
		r, err := a.Invoke(vars)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf(verb, r)
	}
}

// registry loads the operator table, or uses the defaults if there is none.
func registry(tname string, prec uint, left bool) (*flatexpr.Registry, error) {
	if tname != "" {
		return loadTable(tname, prec, left)
	}
	if left {
		return flatexpr.Defaults(prec, flatexpr.LeftToRight()), nil
	}
	return flatexpr.Defaults(prec), nil
}

func infile(inname string, std bool) (string, error) {
	var f *os.File
	switch {
	case inname != "" && inname != "-":
		in, err := os.Open(inname)
		if err != nil {
			return "", err
		}
		defer in.Close()
		f = in
	case inname == "-", std:
		f = os.Stdin
	}
	if f == nil {
		return "", nil
	}
	b, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// lines splits text into its non-blank lines.
func lines(text string) []string {
	var r []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			r = append(r, l)
		}
	}
	return r
}
