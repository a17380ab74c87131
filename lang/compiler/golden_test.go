package compiler_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drdynamic/piscript/internal/filetest"
	"github.com/drdynamic/piscript/lang/compiler"
	"github.com/drdynamic/piscript/lang/table"
)

var testUpdateGoldenTests = flag.Bool("test.update-golden-tests", false, "update lang/compiler golden disassembly files")

// TestDisassembleGolden compiles every testdata/*.l file and diffs its
// disassembly against the matching .want file, the same golden-file
// convention filetest.DiffOutput is used for elsewhere.
func TestDisassembleGolden(t *testing.T) {
	for _, fi := range filetest.SourceFiles(t, "testdata", ".l") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join("testdata", fi.Name()))
			require.NoError(t, err)

			var strings table.Strings
			var globals table.AddressTable
			fn, ok := compiler.Compile(string(src), &strings, &globals)
			require.True(t, ok)

			var out bytes.Buffer
			compiler.Disassemble(&out, fn, "script")

			filetest.DiffOutput(t, fi, out.String(), "testdata", testUpdateGoldenTests)
		})
	}
}
