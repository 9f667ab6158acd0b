package wazero_test

// section frames one module section. Contents stay under 128 bytes so the
// size fits a single LEB128 byte.
func section(id byte, content ...byte) []byte {
	return append([]byte{id, byte(len(content))}, content...)
}

func export(name string, funcIndex byte) []byte {
	out := append([]byte{byte(len(name))}, name...)
	return append(out, 0x00, funcIndex)
}

// body frames a function body with no locals.
func body(code ...byte) []byte {
	content := append([]byte{0x00}, code...)
	content = append(content, 0x0b)
	return append([]byte{byte(len(content))}, content...)
}

// exampleModule builds a module exporting
//
//	add(i32, i32) -> i32
//	init() -> i32          returning initStatus
//	hello() -> i32         returning 0
//	half(f64) -> f64
//	wide(i64) -> i64       returning its argument
func exampleModule(initStatus byte) []byte {
	types := []byte{0x04,
		0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // (i32, i32) -> i32
		0x60, 0x00, 0x01, 0x7f, // () -> i32
		0x60, 0x01, 0x7c, 0x01, 0x7c, // (f64) -> f64
		0x60, 0x01, 0x7e, 0x01, 0x7e, // (i64) -> i64
	}
	funcs := []byte{0x05, 0x00, 0x01, 0x01, 0x02, 0x03}

	exports := []byte{0x05}
	exports = append(exports, export("add", 0)...)
	exports = append(exports, export("init", 1)...)
	exports = append(exports, export("hello", 2)...)
	exports = append(exports, export("half", 3)...)
	exports = append(exports, export("wide", 4)...)

	code := []byte{0x05}
	// local.get 0; local.get 1; i32.add
	code = append(code, body(0x20, 0x00, 0x20, 0x01, 0x6a)...)
	// i32.const initStatus
	code = append(code, body(0x41, initStatus)...)
	// i32.const 0
	code = append(code, body(0x41, 0x00)...)
	// local.get 0; f64.const 0.5; f64.mul
	code = append(code, body(0x20, 0x00, 0x44, 0, 0, 0, 0, 0, 0, 0xe0, 0x3f, 0xa2)...)
	// local.get 0
	code = append(code, body(0x20, 0x00)...)

	mod := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	mod = append(mod, section(0x01, types...)...)
	mod = append(mod, section(0x03, funcs...)...)
	mod = append(mod, section(0x07, exports...)...)
	mod = append(mod, section(0x0a, code...)...)
	return mod
}
