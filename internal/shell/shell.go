// Package shell implements the interactive viie command loop.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/hyperjump/viie/internal/cli"
	"github.com/hyperjump/viie/internal/models"
	"github.com/hyperjump/viie/internal/store"
	"github.com/hyperjump/viie/internal/vector"
)

const (
	DefaultTopK   = 5
	DefaultPrompt = "viie> "
)

const helpText = `Commands:
  create <collection> <dim>                      create a collection
  insert <collection> <id> <f,f,...>             insert or overwrite a vector
  update <collection> <id> <f,f,...>             replace an existing vector
  delete <collection> <id>                       delete a vector
  delete <collection>                            delete a collection
  get <collection> <id>                          show a vector
  search <collection> <f,f,...> [k]              nearest vectors by cosine similarity
  embed <collection> <id> <technique> <text...>  embed text and insert it
  query <collection> <technique> <text...>       embed text and search with it
  list                                           list collections
  help                                           show this help
  exit | quit                                    leave the shell
`

// Shell reads commands line by line and applies them to a store.
type Shell struct {
	store  *store.Store
	in     io.Reader
	out    io.Writer
	topK   int
	prompt string
	logger *zap.Logger

	errColor *color.Color
	okColor  *color.Color
}

// Option configures a Shell.
type Option func(*Shell)

// WithTopK sets the result count for search and query.
func WithTopK(k int) Option {
	return func(s *Shell) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithPrompt sets the prompt string.
func WithPrompt(p string) Option {
	return func(s *Shell) { s.prompt = p }
}

// WithColor enables or disables coloured output. When enabled, colour is
// still suppressed if the output is not a terminal.
func WithColor(enabled bool) Option {
	return func(s *Shell) {
		if !enabled {
			s.errColor.DisableColor()
			s.okColor.DisableColor()
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Shell) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a shell over st reading from in and writing to out.
func New(st *store.Store, in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		store:    st,
		in:       in,
		out:      out,
		topK:     DefaultTopK,
		prompt:   DefaultPrompt,
		logger:   zap.NewNop(),
		errColor: color.New(color.FgRed),
		okColor:  color.New(color.FgGreen),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes commands until exit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, s.prompt)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done := s.Execute(ctx, line); done {
			return nil
		}
	}
}

// Execute runs a single command line and reports whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	var err error
	switch cmd {
	case "exit", "quit":
		return true
	case "help":
		fmt.Fprint(s.out, helpText)
	case "list":
		s.list()
	case "create":
		err = s.create(args)
	case "insert":
		err = s.put(args, false)
	case "update":
		err = s.put(args, true)
	case "delete":
		err = s.delete(args)
	case "get":
		err = s.get(args)
	case "search":
		err = s.search(args)
	case "embed":
		err = s.embed(ctx, args)
	case "query":
		err = s.query(ctx, args)
	default:
		err = fmt.Errorf("unknown command %q (type help)", cmd)
	}
	if err != nil {
		s.logger.Debug("shell command failed", zap.String("command", cmd), zap.Error(err))
		s.errColor.Fprintf(s.out, "error: %v\n", err)
	}
	return false
}

func (s *Shell) ok(format string, a ...any) {
	s.okColor.Fprintf(s.out, format+"\n", a...)
}

func (s *Shell) list() {
	names := s.store.ListCollections()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "no collections")
		return
	}
	for _, name := range names {
		dim, err1 := s.store.Dimension(name)
		n, err2 := s.store.Len(name)
		if err1 != nil || err2 != nil {
			// deleted concurrently
			continue
		}
		fmt.Fprintf(s.out, "%s (dim %d, %d vectors)\n", name, dim, n)
	}
}

func usage(u string) error {
	return fmt.Errorf("usage: %s", u)
}

func (s *Shell) create(args []string) error {
	if len(args) != 2 {
		return usage("create <collection> <dim>")
	}
	dim, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid dimension %q", args[1])
	}
	if err := s.store.CreateCollection(args[0], dim); err != nil {
		return err
	}
	s.ok("created %s (dim %d)", args[0], dim)
	return nil
}

func (s *Shell) put(args []string, update bool) error {
	if len(args) < 3 {
		if update {
			return usage("update <collection> <id> <f,f,...>")
		}
		return usage("insert <collection> <id> <f,f,...>")
	}
	values, err := cli.ParseVector(strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	v := vector.New(values)
	if update {
		if err := s.store.Update(args[0], args[1], v); err != nil {
			return err
		}
		s.ok("updated %s/%s", args[0], args[1])
		return nil
	}
	if err := s.store.Insert(args[0], args[1], v); err != nil {
		return err
	}
	s.ok("inserted %s/%s", args[0], args[1])
	return nil
}

func (s *Shell) delete(args []string) error {
	switch len(args) {
	case 1:
		if err := s.store.DeleteCollection(args[0]); err != nil {
			return err
		}
		s.ok("deleted collection %s", args[0])
	case 2:
		if err := s.store.Delete(args[0], args[1]); err != nil {
			return err
		}
		s.ok("deleted %s/%s", args[0], args[1])
	default:
		return usage("delete <collection> [id]")
	}
	return nil
}

func (s *Shell) get(args []string) error {
	if len(args) != 2 {
		return usage("get <collection> <id>")
	}
	v, err := s.store.Get(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s %s\n", args[1], cli.FormatVector(v.Elements()))
	return nil
}

func (s *Shell) search(args []string) error {
	if len(args) < 2 {
		return usage("search <collection> <f,f,...> [k]")
	}
	elems := args[1:]
	k := s.topK
	// A trailing token is k unless it closes the vector or the token before it continues one.
	if n := len(elems); n > 1 && !strings.HasSuffix(elems[n-1], "]") &&
		!strings.HasSuffix(elems[n-2], ",") && !strings.HasSuffix(elems[n-2], "[") {
		v, err := strconv.Atoi(elems[n-1])
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid k %q", elems[n-1])
		}
		k = v
		elems = elems[:n-1]
	}
	values, err := cli.ParseVector(strings.Join(elems, " "))
	if err != nil {
		return err
	}
	start := time.Now()
	results, err := s.store.Search(args[0], vector.New(values), k)
	if err != nil {
		return err
	}
	return s.writeResults(args[0], results, start)
}

func (s *Shell) embed(ctx context.Context, args []string) error {
	if len(args) < 4 {
		return usage("embed <collection> <id> <technique> <text...>")
	}
	text := strings.Join(args[3:], " ")
	if err := s.store.EmbedAndInsert(ctx, args[0], args[1], text, args[2]); err != nil {
		return err
	}
	s.ok("embedded %s/%s", args[0], args[1])
	return nil
}

func (s *Shell) query(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usage("query <collection> <technique> <text...>")
	}
	start := time.Now()
	results, err := s.store.SearchText(ctx, args[0], strings.Join(args[2:], " "), args[1], s.topK)
	if err != nil {
		return err
	}
	return s.writeResults(args[0], results, start)
}

func (s *Shell) writeResults(collection string, results []vector.Result, start time.Time) error {
	return cli.WriteSearchResults(s.out, models.NewSearchResponse(collection, results, time.Since(start)), cli.OutputText)
}
