package assembler

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// An assembler pass over Jasmin text. It checks that every method is well formed, that every
// branch target is a label of the same method and computes the operand stack depth and the local
// variable words each method needs. The limits are written right after the `.method` line.

const limitIndent = "    "

// stackEffects is the net change of the operand stack, in words, of every instruction whose effect
// does not depend on an operand descriptor.
var stackEffects = map[string]int{
	"nop":         0,
	"aconst_null": 1,
	"iconst_m1":   1,
	"iconst_0":    1,
	"iconst_1":    1,
	"iconst_2":    1,
	"iconst_3":    1,
	"iconst_4":    1,
	"iconst_5":    1,
	"dconst_0":    2,
	"dconst_1":    2,
	"bipush":      1,
	"sipush":      1,
	"ldc":         1,
	"ldc_w":       1,
	"ldc2_w":      2,
	"iload":       1,
	"aload":       1,
	"dload":       2,
	"istore":      -1,
	"astore":      -1,
	"dstore":      -2,
	"iaload":      -1,
	"baload":      -1,
	"aaload":      -1,
	"daload":      0,
	"iastore":     -3,
	"bastore":     -3,
	"aastore":     -3,
	"dastore":     -4,
	"pop":         -1,
	"pop2":        -2,
	"dup":         1,
	"dup2":        2,
	"swap":        0,
	"iadd":        -1,
	"isub":        -1,
	"imul":        -1,
	"idiv":        -1,
	"irem":        -1,
	"iand":        -1,
	"ior":         -1,
	"ixor":        -1,
	"ineg":        0,
	"dadd":        -2,
	"dsub":        -2,
	"dmul":        -2,
	"ddiv":        -2,
	"drem":        -2,
	"dneg":        0,
	"i2d":         1,
	"d2i":         -1,
	"dcmpl":       -3,
	"dcmpg":       -3,
	"ifeq":        -1,
	"ifne":        -1,
	"iflt":        -1,
	"ifge":        -1,
	"ifgt":        -1,
	"ifle":        -1,
	"ifnull":      -1,
	"ifnonnull":   -1,
	"if_icmpeq":   -2,
	"if_icmpne":   -2,
	"if_icmplt":   -2,
	"if_icmpge":   -2,
	"if_icmpgt":   -2,
	"if_icmple":   -2,
	"if_acmpeq":   -2,
	"if_acmpne":   -2,
	"goto":        0,
	"ireturn":     -1,
	"areturn":     -1,
	"dreturn":     -2,
	"return":      0,
	"athrow":      -1,
	"new":         1,
	"newarray":    0,
	"anewarray":   0,
	"arraylength": 0,
	"checkcast":   0,
	"instanceof":  0,
}

// localWords is the number of local variable words read or written by slot instructions.
var localWords = map[string]int{
	"iload":  1,
	"aload":  1,
	"dload":  2,
	"istore": 1,
	"astore": 1,
	"dstore": 2,
}

var endsFlow = map[string]bool{
	"goto":    true,
	"return":  true,
	"ireturn": true,
	"areturn": true,
	"dreturn": true,
	"athrow":  true,
}

var labelFormat = regexp.MustCompile("^[A-Za-z_$][A-Za-z0-9_$]*$")

type CommandType int

const (
	DirectiveCommand CommandType = iota
	LabelCommand
	InstructionCommand
	BlankCommand
)

type Command struct {
	Tp              CommandType
	Op              string // directive, mnemonic or label name
	Args            []string
	Line            int
	OriginalContent string
}

func (command Command) String() string {
	return fmt.Sprintf("Command: {Tp: %d, Op: %s, Args: %v, Line: %d, OriginalContent: %s}", command.Tp,
		command.Op, command.Args, command.Line, command.OriginalContent)
}

// Method is one `.method ... .end method` block and the limits computed for it.
type Method struct {
	Name        string
	Static      bool
	ParamWords  int
	MaxStack    int
	MaxLocals   int
	headerIndex int
	commands    []int
	labels      map[string]int
}

type Assembler struct {
	line     int
	commands []Command
	methods  []*Method
	current  *Method
}

func CreateAssembler() *Assembler {
	return &Assembler{line: 1}
}

// Parse reads Jasmin text and returns its commands. Existing `.limit` directives are dropped; they
// are recomputed when the methods are resolved.
func (asm *Assembler) Parse(rd io.Reader) ([]Command, error) {
	bfReader := bufio.NewReader(rd)
	for {
		line, err := bfReader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if len(line) == 0 && err == io.EOF {
			break
		}
		original := string(bytes.TrimRight(line, "\r\n"))
		trimmed, hasRemainCharacter := asm.trimLine(line)
		if !hasRemainCharacter {
			asm.commands = append(asm.commands, Command{Tp: BlankCommand, Line: asm.line, OriginalContent: original})
		} else if err := asm.transformLine(trimmed, original); err != nil {
			return nil, err
		}
		asm.line++
		if err == io.EOF {
			break
		}
	}
	if asm.current != nil {
		return nil, asm.makeSyntaxErr(fmt.Sprintf("method %s is not closed", asm.current.Name))
	}
	if err := asm.resolveMethods(); err != nil {
		return nil, err
	}
	return asm.commands, nil
}

// trimLine removes surrounding space and a trailing comment. A comment starts at a `;` outside a string
// that begins the line or follows whitespace, so descriptors such as `Ljava/lang/String;` stay whole.
func (asm *Assembler) trimLine(line []byte) ([]byte, bool) {
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		case ';':
			if !inString && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t') {
				line = line[:i]
			}
		}
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}
	return line, true
}

func (asm *Assembler) transformLine(line []byte, original string) error {
	switch {
	case line[0] == '.':
		return asm.transformDirective(string(line), original)
	case line[len(line)-1] == ':':
		return asm.transformLabelCommand(string(line[:len(line)-1]), original)
	default:
		return asm.transformInstruction(string(line), original)
	}
}

func (asm *Assembler) transformDirective(line string, original string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".method":
		if asm.current != nil {
			return asm.makeSyntaxErr("method declared inside method " + asm.current.Name)
		}
		method, err := asm.parseMethodHeader(fields[1:])
		if err != nil {
			return err
		}
		method.headerIndex = len(asm.commands)
		asm.current = method
		asm.methods = append(asm.methods, method)
	case ".end":
		if len(fields) != 2 || fields[1] != "method" {
			return asm.makeSyntaxErr("unknown directive " + line)
		}
		if asm.current == nil {
			return asm.makeSyntaxErr(".end method outside of method")
		}
		asm.current = nil
	case ".limit":
		return nil
	case ".class", ".super", ".field", ".source", ".interface", ".implements":
		if asm.current != nil {
			return asm.makeSyntaxErr(fields[0] + " inside method " + asm.current.Name)
		}
	default:
		return asm.makeSyntaxErr("unknown directive " + fields[0])
	}
	asm.commands = append(asm.commands, Command{Tp: DirectiveCommand, Op: fields[0], Args: fields[1:], Line: asm.line,
		OriginalContent: original})
	return nil
}

// parseMethodHeader reads `access... name(descriptor)ret`.
func (asm *Assembler) parseMethodHeader(fields []string) (*Method, error) {
	if len(fields) == 0 {
		return nil, asm.makeSyntaxErr("method without name")
	}
	signature := fields[len(fields)-1]
	index := strings.IndexByte(signature, '(')
	if index <= 0 {
		return nil, asm.makeSyntaxErr("wrong method signature " + signature)
	}
	paramWords, _, err := descriptorWords(signature[index:])
	if err != nil {
		return nil, asm.makeSyntaxErr(err.Error())
	}
	method := &Method{Name: signature[:index], ParamWords: paramWords, labels: map[string]int{}}
	for _, access := range fields[:len(fields)-1] {
		if access == "static" {
			method.Static = true
		}
	}
	return method, nil
}

func (asm *Assembler) transformLabelCommand(label string, original string) error {
	if asm.current == nil {
		return asm.makeSyntaxErr("label outside of method")
	}
	if !labelFormat.MatchString(label) {
		return asm.makeSyntaxErr("wrong label format")
	}
	if _, exist := asm.current.labels[label]; exist {
		return asm.makeSyntaxErr("found duplicate label " + label)
	}
	asm.current.labels[label] = len(asm.commands)
	asm.current.commands = append(asm.current.commands, len(asm.commands))
	asm.commands = append(asm.commands, Command{Tp: LabelCommand, Op: label, Line: asm.line, OriginalContent: original})
	return nil
}

func (asm *Assembler) transformInstruction(line string, original string) error {
	if asm.current == nil {
		return asm.makeSyntaxErr("instruction outside of method")
	}
	op, rest := line, ""
	if index := strings.IndexAny(line, " \t"); index != -1 {
		op, rest = line[:index], strings.TrimSpace(line[index:])
	}
	var args []string
	if op == "ldc" || op == "ldc_w" {
		if rest == "" {
			return asm.makeSyntaxErr(op + " without constant")
		}
		args = []string{rest}
	} else {
		args = strings.Fields(rest)
	}
	if _, _, err := asm.instructionEffect(op, args); err != nil {
		return err
	}
	asm.current.commands = append(asm.current.commands, len(asm.commands))
	asm.commands = append(asm.commands, Command{Tp: InstructionCommand, Op: op, Args: args, Line: asm.line,
		OriginalContent: original})
	return nil
}

// splitSlotInstruction turns `iload_2` and `iload 2` into ("iload", 2).
func splitSlotInstruction(op string, args []string) (string, int, bool, error) {
	if index := strings.IndexByte(op, '_'); index != -1 {
		base := op[:index]
		if _, ok := localWords[base]; ok {
			slot, err := strconv.Atoi(op[index+1:])
			if err != nil || slot > 3 {
				return "", 0, false, errors.New("wrong slot instruction " + op)
			}
			return base, slot, true, nil
		}
	}
	if _, ok := localWords[op]; ok {
		if len(args) != 1 {
			return "", 0, false, errors.New(op + " expects a slot")
		}
		slot, err := strconv.Atoi(args[0])
		if err != nil || slot < 0 {
			return "", 0, false, errors.New("wrong slot " + args[0])
		}
		return op, slot, true, nil
	}
	return op, 0, false, nil
}

// instructionEffect returns the stack effect of an instruction and the highest local variable word
// it touches plus one.
func (asm *Assembler) instructionEffect(op string, args []string) (int, int, error) {
	base, slot, isSlot, err := splitSlotInstruction(op, args)
	if err != nil {
		return 0, 0, asm.makeSyntaxErr(err.Error())
	}
	if isSlot {
		return stackEffects[base], slot + localWords[base], nil
	}
	switch op {
	case "getstatic", "putstatic", "getfield", "putfield":
		if len(args) != 2 {
			return 0, 0, asm.makeSyntaxErr(op + " expects a field and a descriptor")
		}
		words, err := fieldWords(args[1])
		if err != nil {
			return 0, 0, asm.makeSyntaxErr(err.Error())
		}
		switch op {
		case "getstatic":
			return words, 0, nil
		case "putstatic":
			return -words, 0, nil
		case "getfield":
			return words - 1, 0, nil
		}
		return -words - 1, 0, nil
	case "invokestatic", "invokevirtual", "invokespecial":
		if len(args) != 1 {
			return 0, 0, asm.makeSyntaxErr(op + " expects a method")
		}
		index := strings.IndexByte(args[0], '(')
		if index == -1 {
			return 0, 0, asm.makeSyntaxErr("wrong method reference " + args[0])
		}
		paramWords, returnWords, err := descriptorWords(args[0][index:])
		if err != nil {
			return 0, 0, asm.makeSyntaxErr(err.Error())
		}
		effect := returnWords - paramWords
		if op != "invokestatic" {
			effect--
		}
		return effect, 0, nil
	}
	effect, exist := stackEffects[op]
	if !exist {
		return 0, 0, asm.makeSyntaxErr("unknown instruction " + op)
	}
	return effect, 0, nil
}

func isBranch(op string) bool {
	return op == "goto" || strings.HasPrefix(op, "if")
}

// resolveMethods checks every branch target and computes the limits of each method. The stack depth
// is tracked along the instruction order; a branch hands its depth to the target label, and code
// after an unconditional transfer continues from the depth recorded for the next label.
func (asm *Assembler) resolveMethods() error {
	for _, method := range asm.methods {
		labelDepths := map[string]int{}
		depth, maxDepth := 0, 0
		reachable := true
		maxLocals := method.ParamWords
		if !method.Static {
			maxLocals++
		}
		for _, index := range method.commands {
			command := asm.commands[index]
			if command.Tp == LabelCommand {
				recorded, exist := labelDepths[command.Op]
				if !reachable {
					depth = recorded
				} else if exist && recorded > depth {
					depth = recorded
				}
				reachable = true
				continue
			}
			effect, locals, _ := asm.instructionEffect(command.Op, command.Args)
			if locals > maxLocals {
				maxLocals = locals
			}
			depth += effect
			if depth < 0 {
				return asm.makeSyntaxErrAtSpecificLine(command.Line, "operand stack underflow in method "+method.Name)
			}
			if depth > maxDepth {
				maxDepth = depth
			}
			if isBranch(command.Op) {
				if len(command.Args) != 1 {
					return asm.makeSyntaxErrAtSpecificLine(command.Line, command.Op+" expects a label")
				}
				target := command.Args[0]
				if _, exist := method.labels[target]; !exist {
					return asm.makeSyntaxErrAtSpecificLine(command.Line, "undefined label "+target)
				}
				if recorded, exist := labelDepths[target]; !exist || depth > recorded {
					labelDepths[target] = depth
				}
			}
			if endsFlow[command.Op] {
				reachable = false
				depth = 0
			}
		}
		method.MaxStack = maxDepth
		method.MaxLocals = maxLocals
	}
	return nil
}

// Methods returns the methods found by Parse with their computed limits.
func (asm *Assembler) Methods() []*Method {
	return asm.methods
}

// Render returns the parsed text with `.limit stack` and `.limit locals` inserted after every
// `.method` line.
func (asm *Assembler) Render() []string {
	headers := map[int]*Method{}
	for _, method := range asm.methods {
		headers[method.headerIndex] = method
	}
	lines := make([]string, 0, len(asm.commands)+2*len(asm.methods))
	for index, command := range asm.commands {
		lines = append(lines, command.OriginalContent)
		if method, ok := headers[index]; ok {
			lines = append(lines, fmt.Sprintf("%s.limit stack %d", limitIndent, method.MaxStack))
			lines = append(lines, fmt.Sprintf("%s.limit locals %d", limitIndent, method.MaxLocals))
		}
	}
	return lines
}

// AssembleLines runs the pass over already split lines and returns them with limits inserted.
func AssembleLines(lines []string) ([]string, error) {
	asm := CreateAssembler()
	if _, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n"))); err != nil {
		return nil, err
	}
	return asm.Render(), nil
}

// fieldWords is the number of words a value of the field descriptor occupies.
func fieldWords(desc string) (int, error) {
	words, rest, err := nextDescriptor(desc)
	if err != nil {
		return 0, err
	}
	if rest != "" {
		return 0, errors.New("wrong descriptor " + desc)
	}
	return words, nil
}

// descriptorWords returns the words taken by the parameters and by the result of a method
// descriptor such as `(I[Ljava/lang/String;D)V`.
func descriptorWords(desc string) (int, int, error) {
	if !strings.HasPrefix(desc, "(") {
		return 0, 0, errors.New("wrong method descriptor " + desc)
	}
	rest := desc[1:]
	params := 0
	for !strings.HasPrefix(rest, ")") {
		if rest == "" {
			return 0, 0, errors.New("wrong method descriptor " + desc)
		}
		words, remain, err := nextDescriptor(rest)
		if err != nil {
			return 0, 0, err
		}
		params += words
		rest = remain
	}
	ret, err := fieldWords(rest[1:])
	if err != nil {
		return 0, 0, err
	}
	return params, ret, nil
}

func nextDescriptor(desc string) (int, string, error) {
	if desc == "" {
		return 0, "", errors.New("empty descriptor")
	}
	switch desc[0] {
	case 'V':
		return 0, desc[1:], nil
	case 'D', 'J':
		return 2, desc[1:], nil
	case 'I', 'Z', 'B', 'C', 'S', 'F':
		return 1, desc[1:], nil
	case 'L':
		end := strings.IndexByte(desc, ';')
		if end == -1 {
			return 0, "", errors.New("wrong descriptor " + desc)
		}
		return 1, desc[end+1:], nil
	case '[':
		_, rest, err := nextDescriptor(desc[1:])
		if err != nil {
			return 0, "", err
		}
		return 1, rest, nil
	}
	return 0, "", errors.New("wrong descriptor " + desc)
}

func (asm *Assembler) makeSyntaxErr(msg string) error {
	return errors.New(fmt.Sprintf("syntax err at line %d: %s", asm.line, msg))
}

func (asm *Assembler) makeSyntaxErrAtSpecificLine(line int, msg string) error {
	return errors.New(fmt.Sprintf("syntax err at line %d: %s", line, msg))
}
