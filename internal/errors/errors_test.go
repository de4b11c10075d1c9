package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/binding"
	"github.com/vango-dev/vbind/pkg/snapshot"
)

func init() {
	DisableColors()
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"resource error", "VB001", "Unresolved value converter", CategoryResource},
		{"binding error", "VB020", "Binding behavior already applied", CategoryBinding},
		{"expression error", "VB040", "Not a function", CategoryExpression},
		{"unknown error code", "VB999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.wantCat, err.Category)
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "expr.json")
	assert.Equal(t, `file "expr.json" not found`, err.Message)
	assert.Equal(t, CategoryCLI, err.Category)
	assert.Equal(t, `file "expr.json" not found`, err.Error())
}

func TestBindError_ErrorIncludesCause(t *testing.T) {
	err := New("VB001").Wrap(fmt.Errorf("%w: %q", binding.ErrUnresolvedConverter, "currency"))
	assert.Equal(t, `VB001: Unresolved value converter: vbind: unresolved value converter: "currency"`, err.Error())
	assert.ErrorIs(t, err, binding.ErrUnresolvedConverter)
}

func TestClassify_Sentinels(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{binding.ErrUnresolvedConverter, "VB001"},
		{binding.ErrUnresolvedBehavior, "VB002"},
		{binding.ErrUnresolvedSignaler, "VB003"},
		{binding.ErrDuplicateBehaviorApplication, "VB020"},
		{binding.ErrInvalidBindingMode, "VB021"},
		{binding.ErrNotBound, "VB022"},
		{binding.ErrUnsupportedOperation, "VB023"},
		{binding.ErrNotAFunction, "VB040"},
		{ast.ErrNotIterable, "VB041"},
		{ast.ErrInvalidTree, "VB042"},
		{vbind.ErrStarted, "VB060"},
		{snapshot.ErrNotFound, "VB080"},
		{snapshot.ErrInvalidDocument, "VB081"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			wrapped := fmt.Errorf("start view %q: %w", "page", tt.err)
			got := Classify(wrapped)
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Code)
			assert.ErrorIs(t, got, tt.err)
			_, ok := GetTemplate(tt.code)
			assert.True(t, ok, "code %s not registered", tt.code)
		})
	}
}

func TestClassify_FromEvaluation(t *testing.T) {
	app := vbind.New(vbind.Config{})
	_, err := app.Eval(&ast.ValueConverter{Expression: ast.Literal(1), Name: "currency"}, nil)
	require.Error(t, err)

	got := Classify(err)
	assert.Equal(t, "VB001", got.Code)
	assert.Contains(t, got.Format(), `"currency"`)
}

func TestClassify_PassThroughAndUnknown(t *testing.T) {
	assert.Nil(t, Classify(nil))

	be := New("VB082")
	assert.Same(t, be, Classify(fmt.Errorf("open store: %w", be)))

	plain := stderrors.New("disk full")
	got := Classify(plain)
	assert.Empty(t, got.Code)
	assert.Equal(t, CategoryCLI, got.Category)
	assert.ErrorIs(t, got, plain)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil, "VB120"))

	be := New("VB001")
	assert.Same(t, be, FromError(be, "VB120"))

	inner := stderrors.New("no such file")
	got := FromError(inner, "VB120")
	assert.Equal(t, "VB120", got.Code)
	assert.Same(t, inner, got.Wrapped)
}

func TestBindError_Format(t *testing.T) {
	err := New("VB020").Wrap(binding.ErrDuplicateBehaviorApplication)
	out := err.Format()

	assert.Contains(t, out, "ERROR VB020: Binding behavior already applied")
	assert.Contains(t, out, "cause: vbind: binding behavior already applied")
	assert.Contains(t, out, "Hint: Remove the duplicate & behavior")
	assert.NotContains(t, out, "\x1b[", "colors should be disabled in tests")

	noCode := Newf(CategoryCLI, "boom").Format()
	assert.Contains(t, noCode, "ERROR: boom")
	assert.NotContains(t, noCode, "Hint:")
}

func TestBindError_FormatJSON(t *testing.T) {
	err := New("VB040").Wrap(stderrors.New("vbind: not a function: save"))

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(err.FormatJSON()), &got))
	assert.Equal(t, "VB040", got["code"])
	assert.Equal(t, "expression", got["category"])
	assert.Equal(t, "Not a function", got["message"])
	assert.Equal(t, "vbind: not a function: save", got["cause"])

	minimal := Newf(CategoryCLI, "x").FormatJSON()
	assert.NotContains(t, minimal, "code")
	assert.NotContains(t, minimal, "suggestion")
}

func TestWrapText(t *testing.T) {
	assert.Nil(t, wrapText("", 10))
	assert.Equal(t, []string{"short"}, wrapText("short", 10))

	lines := wrapText(strings.Repeat("word ", 30), 20)
	require.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 20)
	}
}

func TestGetAllCodes_Sorted(t *testing.T) {
	codes := GetAllCodes()
	require.NotEmpty(t, codes)
	assert.Equal(t, "VB001", codes[0])
	assert.IsIncreasing(t, codes)
}

func TestRegister(t *testing.T) {
	Register("VB999", ErrorTemplate{Category: CategoryCLI, Message: "custom"})
	defer delete(registry, "VB999")

	assert.Equal(t, "custom", New("VB999").Message)
}
