package citation

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"A {BibTeX} Title", "A BibTeX Title"},
		{`100\% effective`, "100% effective"},
		{`A \& B`, "A & B"},
		{`under\_score`, "under_score"},
		{`{\'e}t{\'e}`, "été"},
		{`\'{e}`, "é"},
		{`G{\"o}del`, "Gödel"},
		{`\"Ozt\"urk`, "Öztürk"},
		{`Fran\c{c}ois`, "François"},
		{`Fran\c cois`, "François"},
		{`\v{S}koda`, "Škoda"},
		{`Stra\ss e`, "Straße"},
		{`{\o}re`, "øre"},
		{`na\"{\i}ve`, "naïve"},
		{"pages 10--20", "pages 10–20"},
		{"wait---what", "wait—what"},
		{"Fig.~1", "Fig.\u00a01"},
		{`\emph{Important} result`, "Important result"},
		{`\textbf{Bold}`, "Bold"},
		{`\LaTeX{} rocks`, "LaTeX rocks"},
		{`\~n`, "ñ"},
		{`\'x`, "x\u0301"},
		{`trailing\`, "trailing"},
		{`\'{}x`, "x"},
		{`a\'{} b`, "a b"},
		{"\\'\xffAbc", "\xffAbc"},
		{"\\'\u00e9t\u00e9", "\u00e9\u0301t\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Clean(tt.input)
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
