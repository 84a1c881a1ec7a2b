package mach

import "gup/pkg/types"

// X86_64 emits NASM syntax following the System V return conventions.
var X86_64 = &Target{
	Name: "x86_64",
	RetRegs: map[types.Width]string{
		types.Width64: "rax",
		types.Width32: "eax",
		types.Width16: "ax",
		types.Width8:  "al",
	},
	SizeDirectives: map[types.DataType]string{
		types.U8:  "db",
		types.U16: "dw",
		types.U32: "dd",
		types.U64: "dq",
	},
	GlobalFmt:  "[global %s]",
	CallFmt:    "call %s",
	JumpFmt:    "jmp %s",
	MoveImmFmt: "mov %s, %d",
	Ret:        "ret",
	Assemble: func(asmPath, objPath, format string) []string {
		if format == "" {
			format = "elf64"
		}
		return []string{"nasm", "-f" + format, asmPath, "-o", objPath}
	},
}

func init() {
	register(X86_64)
}
