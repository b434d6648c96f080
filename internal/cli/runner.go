package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/todo"
	"github.com/idilsaglam/tada/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Group bool // list grouped by pending/done
}

// Env is what a subcommand runs against.
type Env struct {
	Store  *todo.Store
	Slot   store.Slot // read directly by `check`
	Stdout io.Writer
	Stderr io.Writer

	// Interactive starts the TUI. Nil disables the `tui` subcommand.
	Interactive func() error
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(env Env, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp(env.Stderr)
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(env.Stdout)
		return 0

	case "ls":
		return doList(env, opt)

	case "add":
		if len(a) == 0 {
			ui.Fail(env.Stderr, "usage: todo add <text...>")
			return 2
		}
		return doAdd(env, strings.Join(a, " "))

	case "done":
		n, code := indexArg(env, cmd, a)
		if code != 0 {
			return code
		}
		return doToggle(env, n)

	case "edit":
		if len(a) < 2 {
			ui.Fail(env.Stderr, "usage: todo edit <index> <text...>")
			return 2
		}
		n, code := indexArg(env, cmd, a[:1])
		if code != 0 {
			return code
		}
		return doEdit(env, n, strings.Join(a[1:], " "))

	case "rm":
		n, code := indexArg(env, cmd, a)
		if code != 0 {
			return code
		}
		return doRemove(env, n)

	case "tui":
		if env.Interactive == nil {
			ui.Fail(env.Stderr, "tui: not available")
			return 1
		}
		if err := env.Interactive(); err != nil {
			ui.Fail(env.Stderr, "tui: "+err.Error())
			return 1
		}
		return 0

	case "check":
		return doCheck(env)

	case "export":
		if len(a) > 1 {
			ui.Fail(env.Stderr, "usage: todo export [file]")
			return 2
		}
		return doExport(env, a)

	case "import":
		if len(a) != 1 {
			ui.Fail(env.Stderr, "usage: todo import <file>")
			return 2
		}
		return doImport(env, a[0])
	}

	ui.Fail(env.Stderr, "unknown subcommand: "+cmd)
	fmt.Fprintln(env.Stderr)
	PrintHelp(env.Stderr)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `todo - a tiny todo list

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  add <text...>          Add a new item (text can be multiple words)
  ls                     List items
  done <index>           Toggle done for item at 1-based index
  edit <index> <text...> Replace the text of item at 1-based index
  rm <index>             Remove item at 1-based index
  tui                    Interactive list
  check                  Validate the stored list
  export [file]          Write the list as JSON to file or stdout
  import <file>          Replace the list with a JSON file

Flags:
  -config <file>  -backend json|sqlite|memory  -data-dir <dir>  -key <name>
  -group  -theme classic|neon|mono  -log-level <level>  -log-format text|json|logfmt

Examples:
  todo add "Buy milk"
  todo ls
  todo done 2
  todo edit 2 "Buy oat milk"
  todo rm 3
`)
}

func indexArg(env Env, cmd string, a []string) (int, int) {
	if len(a) != 1 {
		ui.Fail(env.Stderr, fmt.Sprintf("usage: todo %s <index>", cmd))
		return 0, 2
	}
	n, err := strconv.Atoi(a[0])
	if err != nil {
		ui.Fail(env.Stderr, cmd+": not a number: "+a[0])
		return 0, 2
	}
	return n, 0
}

// -------------- subcommand impls ----------------

func doList(env Env, opt Options) int {
	items := env.Store.Items()
	t := ui.Current()

	d, p := stats(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), d,
		t.Pending.Render(t.SymPending), p,
		t.Accent.Render("Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, t.Muted.Render(ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if opt.Group {
		lines = append(lines, groupLines(number(items))...)
	} else {
		lines = append(lines, flatLines(number(items))...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: add with `todo add \"Buy milk\"`"))
	ui.Panel(env.Stdout, lines)
	return 0
}

func doAdd(env Env, text string) int {
	if err := env.Store.Create(text); err != nil {
		if errors.Is(err, todo.ErrEmptyText) {
			ui.Fail(env.Stderr, "add: empty text")
			return 2
		}
		ui.Fail(env.Stderr, "add: "+err.Error())
		return 1
	}
	if code := persisted(env); code != 0 {
		return code
	}
	ui.OK(env.Stdout, "added")
	return 0
}

func doToggle(env Env, userIndex int) int {
	it, code := itemAt(env, userIndex)
	if code != 0 {
		return code
	}
	env.Store.Toggle(it.ID)
	if code := persisted(env); code != 0 {
		return code
	}
	ui.OK(env.Stdout, "toggled")
	return 0
}

// doEdit drives the same cursor the TUI uses: start, fill the buffer, save.
func doEdit(env Env, userIndex int, text string) int {
	it, code := itemAt(env, userIndex)
	if code != 0 {
		return code
	}
	env.Store.StartEdit(it.ID, it.Text)
	env.Store.SetEditText(text)
	if err := env.Store.SaveEdit(it.ID); err != nil {
		env.Store.CancelEdit(it.Text)
		ui.Fail(env.Stderr, "edit: empty text")
		return 2
	}
	if code := persisted(env); code != 0 {
		return code
	}
	ui.OK(env.Stdout, "edited")
	return 0
}

func doRemove(env Env, userIndex int) int {
	it, code := itemAt(env, userIndex)
	if code != 0 {
		return code
	}
	env.Store.Delete(it.ID)
	if code := persisted(env); code != 0 {
		return code
	}
	ui.OK(env.Stdout, "removed")
	return 0
}

func doCheck(env Env) int {
	key := env.Store.Key()
	b, ok, err := env.Slot.Get(key)
	if err != nil {
		ui.Fail(env.Stderr, "load: "+err.Error())
		return 1
	}
	if !ok {
		ui.OK(env.Stdout, fmt.Sprintf("nothing stored under %q", key))
		return 0
	}
	res := todo.CheckDocument(b)
	if res.Valid() {
		ui.OK(env.Stdout, fmt.Sprintf("%d items, no problems", res.Items))
		return 0
	}
	for _, p := range res.Problems {
		ui.Fail(env.Stderr, p.String())
	}
	return 1
}

func doExport(env Env, a []string) int {
	b, err := env.Store.Export()
	if err != nil {
		ui.Fail(env.Stderr, "export: "+err.Error())
		return 1
	}
	if len(a) == 0 {
		fmt.Fprintln(env.Stdout, string(b))
		return 0
	}
	if err := os.WriteFile(a[0], append(b, '\n'), 0o644); err != nil {
		ui.Fail(env.Stderr, "export: "+err.Error())
		return 1
	}
	ui.OK(env.Stdout, fmt.Sprintf("exported %d items to %s", env.Store.Len(), a[0]))
	return 0
}

func doImport(env Env, path string) int {
	b, err := os.ReadFile(path)
	if err != nil {
		ui.Fail(env.Stderr, "import: "+err.Error())
		return 1
	}
	if err := env.Store.Import(b); err != nil {
		var ie *todo.ImportError
		if errors.As(err, &ie) {
			for _, p := range ie.Problems {
				ui.Fail(env.Stderr, "import: "+p.String())
			}
			return 1
		}
		ui.Fail(env.Stderr, err.Error())
		return 1
	}
	if code := persisted(env); code != 0 {
		return code
	}
	ui.OK(env.Stdout, fmt.Sprintf("imported %d items", env.Store.Len()))
	return 0
}

// itemAt resolves a 1-based index from `ls` output.
func itemAt(env Env, userIndex int) (model.Item, int) {
	items := env.Store.Items()
	if userIndex < 1 || userIndex > len(items) {
		ui.Fail(env.Stderr, fmt.Sprintf("index out of range: have %d, got %d", len(items), userIndex))
		fmt.Fprintln(env.Stderr, ui.Current().Muted.Render("Hint: run `todo ls` to see valid indexes"))
		return model.Item{}, 2
	}
	return items[userIndex-1], 0
}

// persisted reports a failed write. The change is lost once the process exits.
func persisted(env Env) int {
	if err := env.Store.PersistError(); err != nil {
		ui.Fail(env.Stderr, "save: "+err.Error())
		return 1
	}
	return 0
}

// -------------- rendering helpers --------------

func stats(items []model.Item) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// numbered pairs an item with its 1-based position in the full list, so
// grouped output shows the same indexes `done`/`rm` accept.
type numbered struct {
	n  int
	it model.Item
}

func number(items []model.Item) []numbered {
	out := make([]numbered, len(items))
	for i, it := range items {
		out[i] = numbered{n: i + 1, it: it}
	}
	return out
}

func flatLines(items []numbered) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{t.Muted.Render("no items")}
	}
	out := make([]string, 0, len(items))
	for _, x := range items {
		idx := fmt.Sprintf("%2d.", x.n)
		box, style := t.BoxUnchecked, t.Muted
		text := ui.Truncate(x.it.Text, 80)
		if x.it.Completed {
			box, style = t.BoxChecked, t.Success
			text = t.Done.Render(text)
		}
		out = append(out, fmt.Sprintf("%s %s %s", t.Muted.Render(idx), style.Render(box), text))
	}
	return out
}

func groupLines(items []numbered) []string {
	t := ui.Current()
	var pend, done []numbered
	for _, x := range items {
		if x.it.Completed {
			done = append(done, x)
		} else {
			pend = append(pend, x)
		}
	}
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}
