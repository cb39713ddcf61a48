package execpolicy

import (
	"context"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// safeCommands run without write side effects. Subcommand granularity is
// used for git, which mixes read and write operations under one binary.
var safeCommands = map[string]bool{
	"cat": true, "ls": true, "pwd": true, "echo": true, "head": true,
	"tail": true, "wc": true, "grep": true, "rg": true, "find": true,
	"which": true, "whereis": true, "sort": true, "uniq": true,
	"stat": true, "tree": true, "du": true, "file": true, "diff": true,
	"cut": true, "less": true, "more": true, "date": true, "env": true,
	"go": true, "true": true, "false": true,
}

var safeGitSubcommands = map[string]bool{
	"status": true, "diff": true, "log": true, "show": true,
	"branch": true, "blame": true, "remote": true,
}

// writeCommands modify the filesystem; their path arguments become write
// targets the caller's file policy must cover.
var writeCommands = map[string]bool{
	"rm": true, "cp": true, "mv": true, "mkdir": true, "touch": true,
	"chmod": true, "chown": true, "rmdir": true, "dd": true, "tee": true,
	"truncate": true, "ln": true,
}

// forbiddenCommands never run regardless of agent permissions.
var forbiddenCommands = map[string]string{
	"sudo":     "privilege escalation is not permitted",
	"su":       "privilege escalation is not permitted",
	"shutdown": "host power control is not permitted",
	"reboot":   "host power control is not permitted",
	"halt":     "host power control is not permitted",
	"poweroff": "host power control is not permitted",
	"mkfs":     "filesystem creation is not permitted",
	"fdisk":    "disk partitioning is not permitted",
}

// Classifier is the reference exec-policy implementation. It parses the
// invocation as bash so pipelines, lists, and substitutions are judged per
// command, not by the raw string.
type Classifier struct{}

// NewClassifier creates the reference classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// parsedCommand is one simple command lifted out of the parse tree.
type parsedCommand struct {
	name    string
	args    []string
	dynamic bool // contained a command substitution or unexpanded variable
}

// Classify implements Policy.
func (c *Classifier) Classify(_ context.Context, cmd string, args []string) Decision {
	line := cmd
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}

	commands, err := parseLine(line)
	if err != nil || len(commands) == 0 {
		return Decision{Kind: Unverified, Reason: "command could not be parsed"}
	}

	// The whole invocation takes the strictest classification among its
	// constituent commands.
	var writeTargets []string
	sawWrite := false

	for _, pc := range commands {
		if reason, ok := forbiddenCommands[pc.name]; ok {
			return Decision{Kind: Forbidden, Reason: reason}
		}
		if pc.dynamic {
			return Decision{Kind: Unverified, Reason: "command contains dynamic expansion"}
		}

		switch {
		case writeCommands[pc.name]:
			sawWrite = true
			writeTargets = append(writeTargets, extractPaths(pc)...)
		case pc.name == "git":
			if !safeGitSubcommands[subcommand(pc)] {
				return Decision{Kind: Unverified, Reason: "unrecognized git subcommand"}
			}
		case safeCommands[pc.name]:
			// fine
		default:
			return Decision{Kind: Unverified, Reason: "unrecognized command: " + pc.name}
		}
	}

	if sawWrite {
		return Decision{Kind: MatchWithWriteTargets, WriteTargets: writeTargets}
	}
	return Decision{Kind: Safe}
}

// parseLine parses a bash command line into its simple commands.
func parseLine(line string) ([]parsedCommand, error) {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)

	file, err := parser.Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, err
	}

	var commands []parsedCommand
	syntax.Walk(file, func(node syntax.Node) bool {
		if call, ok := node.(*syntax.CallExpr); ok {
			if pc := extractCall(call); pc != nil {
				commands = append(commands, *pc)
			}
		}
		return true
	})

	return commands, nil
}

func extractCall(call *syntax.CallExpr) *parsedCommand {
	if len(call.Args) == 0 {
		return nil
	}

	pc := &parsedCommand{}
	name, dynamic := wordToString(call.Args[0])
	if name == "" {
		return nil
	}
	pc.name = name
	pc.dynamic = dynamic

	for _, arg := range call.Args[1:] {
		s, dyn := wordToString(arg)
		pc.args = append(pc.args, s)
		pc.dynamic = pc.dynamic || dyn
	}

	return pc
}

// wordToString flattens a parsed word; the boolean reports whether the word
// contains expansion the classifier cannot evaluate statically.
func wordToString(word *syntax.Word) (string, bool) {
	var sb strings.Builder
	dynamic := false

	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, qp := range p.Parts {
				switch q := qp.(type) {
				case *syntax.Lit:
					sb.WriteString(q.Value)
				default:
					dynamic = true
				}
			}
		case *syntax.ParamExp:
			dynamic = true
		case *syntax.CmdSubst:
			dynamic = true
		default:
			dynamic = true
		}
	}

	return sb.String(), dynamic
}

// subcommand returns the first non-flag argument.
func subcommand(pc parsedCommand) string {
	for _, arg := range pc.args {
		if !strings.HasPrefix(arg, "-") {
			return arg
		}
	}
	return ""
}

// extractPaths returns the non-flag arguments of a write command. chmod
// mode arguments are skipped.
func extractPaths(pc parsedCommand) []string {
	var paths []string
	for _, arg := range pc.args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if pc.name == "chmod" && isChmodMode(arg) {
			continue
		}
		paths = append(paths, arg)
	}
	return paths
}

func isChmodMode(arg string) bool {
	if arg == "" {
		return false
	}
	switch arg[0] {
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
		'u', 'g', 'o', 'a', '+', '=':
		return true
	}
	return false
}
