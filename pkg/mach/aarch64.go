package mach

import "gup/pkg/types"

// AArch64 emits GNU as syntax following AAPCS64. Narrow values are
// returned in w0.
var AArch64 = &Target{
	Name: "aarch64",
	RetRegs: map[types.Width]string{
		types.Width64: "x0",
		types.Width32: "w0",
		types.Width16: "w0",
		types.Width8:  "w0",
	},
	SizeDirectives: map[types.DataType]string{
		types.U8:  ".byte",
		types.U16: ".hword",
		types.U32: ".word",
		types.U64: ".quad",
	},
	GlobalFmt:  ".global %s",
	CallFmt:    "bl %s",
	JumpFmt:    "b %s",
	MoveImmFmt: "ldr %s, =%d",
	Ret:        "ret",
	Assemble: func(asmPath, objPath, _ string) []string {
		return []string{"as", asmPath, "-o", objPath}
	},
}

func init() {
	register(AArch64)
}
