// pkcs11uri-lint parses PKCS#11 URIs given as arguments (or one per line
// on stdin) and reports RFC 7512 violations with the offending span
// highlighted. Advisory "SHOULD"-level findings are logged; lower
// -loglevel to 0 to see all of them, or raise it to silence them.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/cloudflare/cfssl/log"
	"github.com/cloudflare/pkcs11uri"
	"github.com/spf13/pflag"
)

var noValidate bool

func init() {
	pflag.IntVar(&log.Level, "loglevel", log.LevelWarning, "Degree of logging")
	pflag.BoolVar(&noValidate, "no-validate", false, "Skip RFC 7512 name and value validation")
	pflag.Parse()
}

func main() {
	uris := pflag.Args()
	if len(uris) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			uris = append(uris, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			log.Fatal(err)
		}
	}

	var opts []pkcs11uri.Option
	if noValidate {
		opts = append(opts, pkcs11uri.WithoutValidation())
	}
	parser := pkcs11uri.NewParser(opts...)

	failed := 0
	for _, uri := range uris {
		mapping, err := parser.Parse(uri)
		if err != nil {
			failed++
			var perr *pkcs11uri.ParseError
			if errors.As(err, &perr) {
				fmt.Fprintln(os.Stderr, perr.Render())
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		}
		fmt.Println(mapping)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
