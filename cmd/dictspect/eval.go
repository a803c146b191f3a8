package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kestrel-engine/kestrel-go/enginetest"
	"github.com/kestrel-engine/kestrel-go/ffi"
	"github.com/kestrel-engine/kestrel-go/variant"
)

// session holds one dictionary under inspection plus the engine whose
// capability counters it reports on.
type session struct {
	eng  *enginetest.Engine
	dict variant.Dictionary
}

func newSession(eng *enginetest.Engine) *session {
	return &session{eng: eng, dict: variant.NewDictionary()}
}

func (s *session) Close() { s.dict.Close() }

// Eval executes one command line and returns its printable output.
func (s *session) Eval(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "set":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: set <key> <value>")
		}
		s.dict.Set(args[0], parseValue(args[1]))
		return "ok", nil

	case "get":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: get <key>")
		}
		v, found := s.dict.Get(args[0])
		if !found {
			return "(absent)", nil
		}
		defer v.Close()
		return fmt.Sprintf("%s (%s)", v.String(), v.Type()), nil

	case "getset":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: getset <key> <default>")
		}
		v := s.dict.GetOrInsert(args[0], parseValue(args[1]))
		defer v.Close()
		return v.String(), nil

	case "del":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: del <key>")
		}
		prev, existed := s.dict.Remove(args[0])
		if !existed {
			return "(absent)", nil
		}
		defer prev.Close()
		return "removed " + prev.String(), nil

	case "keys":
		keys := s.dict.KeysArray()
		defer keys.Close()
		return keys.String(), nil

	case "len":
		return strconv.Itoa(s.dict.Len()), nil

	case "show":
		return s.dict.String(), nil

	case "hash":
		return fmt.Sprintf("%#x", s.dict.Hash()), nil

	case "clear":
		s.dict.Clear()
		return "ok", nil

	case "dup":
		deep := len(args) == 1 && args[0] == "deep"
		var d variant.Dictionary
		if deep {
			d = s.dict.DuplicateDeep()
		} else {
			d = s.dict.DuplicateShallow()
		}
		old := s.dict
		s.dict = d
		old.Close()
		return "now inspecting the duplicate", nil

	case "ro":
		s.dict = s.dict.IntoReadOnly()
		return "read-only", nil

	case "filter":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: filter <op> <value>  (op: == != < <= > >=)")
		}
		op, ok := comparisons[args[0]]
		if !ok {
			return "", fmt.Errorf("unknown comparison %q", args[0])
		}
		operand := variant.New(parseValue(args[1]))
		defer operand.Close()
		pred := variant.Pred("dictspect.filter", func(v variant.Variant) bool {
			r, defined := v.Evaluate(op, operand)
			defer r.Close()
			return defined && r.Booleanize()
		})
		defer pred.Close()
		d := s.dict.Filter(pred)
		old := s.dict
		s.dict = d
		old.Close()
		return "now inspecting the filtered copy", nil

	case "map":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: map <op> <value>  (op: + - * / %%)")
		}
		op, ok := arithmetic[args[0]]
		if !ok {
			return "", fmt.Errorf("unknown operator %q", args[0])
		}
		operand := variant.New(parseValue(args[1]))
		defer operand.Close()
		fn := variant.Func("dictspect.map", func(v variant.Variant) variant.Variant {
			r, defined := v.Evaluate(op, operand)
			if !defined {
				r.Close()
				return v.Clone()
			}
			return r
		})
		defer fn.Close()
		d := s.dict.MapValues(fn)
		old := s.dict
		s.dict = d
		old.Close()
		return "now inspecting the mapped copy", nil

	case "calls":
		return s.formatCalls(), nil

	case "reset":
		s.eng.ResetCalls()
		return "counters cleared", nil

	case "help":
		return helpText, nil

	default:
		return "", fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

// parseValue maps a command token onto a host value: bool and number
// literals become their own types, everything else stays a string.
func parseValue(tok string) any {
	switch tok {
	case "true":
		return true
	case "false":
		return false
	case "nil":
		return nil
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	return strings.Trim(tok, `"`)
}

func (s *session) formatCalls() string {
	counts := map[string]int{}
	for _, name := range capabilityNames {
		if n := s.eng.Calls(name); n > 0 {
			counts[name] = n
		}
	}
	if len(counts) == 0 {
		return "(no capability calls recorded)"
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%-28s %d\n", name, counts[name])
	}
	return strings.TrimRight(b.String(), "\n")
}

var comparisons = map[string]ffi.Operator{
	"==": ffi.OpEqual,
	"!=": ffi.OpNotEqual,
	"<":  ffi.OpLess,
	"<=": ffi.OpLessEqual,
	">":  ffi.OpGreater,
	">=": ffi.OpGreaterEqual,
}

var arithmetic = map[string]ffi.Operator{
	"+": ffi.OpAdd,
	"-": ffi.OpSubtract,
	"*": ffi.OpMultiply,
	"/": ffi.OpDivide,
	"%": ffi.OpModulo,
}

// capabilityNames lists the counters worth reporting. The engine counts
// every table entry; this keeps the output to the container surface.
var capabilityNames = []string{
	"variant.new_copy",
	"variant.destroy",
	"variant.get_keyed",
	"variant.set_keyed",
	"variant.from_string",
	"variant.from_int",
	"variant.from_float",
	"variant.from_bool",
	"dict.new",
	"dict.get_or_add",
	"variant.call.size",
	"variant.call.clear",
	"variant.call.erase",
	"variant.call.duplicate",
	"variant.call.keys",
	"variant.call.values",
	"variant.call.merge",
	"variant.call.make_read_only",
	"variant.call.is_read_only",
	"variant.call.reserve",
	"variant.call.hash",
	"iter.init",
	"iter.next",
}

const helpText = `commands:
  set <key> <value>      store a value (bool/int/float/string literals)
  get <key>              read a value and its wire type
  getset <key> <default> get-or-insert, exercising the native capability
  del <key>              erase a key
  keys | len | show      inspect the container
  hash                   content hash
  dup [deep]             duplicate and switch to the copy
  filter <op> <value>    keep entries whose value compares true
  map <op> <value>       transform every value arithmetically
  ro                     freeze the container
  clear                  remove every entry
  calls | reset          show or clear capability counters
  help                   this text`
