package compiler

import "strings"

// Compile compiles src as one unit and returns the generated assembly. On
// failure the text emitted before the error is returned with it.
func Compile(src string, cfg Config) (string, error) {
	var out strings.Builder
	st, err := NewState(strings.NewReader(src), &out, cfg)
	if err != nil {
		return "", err
	}
	err = st.Parse()
	return out.String(), err
}
