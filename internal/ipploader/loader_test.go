package ipploader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ippinterp21/internal/ipperr"
	"ippinterp21/internal/ippmachine"
)

func TestLoadSimpleProgram(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>
<program language="IPPcode21">
  <instruction order="1" opcode="DEFVAR"><arg1 type="var">GF@a</arg1></instruction>
  <instruction order="2" opcode="MOVE">
    <arg1 type="var">GF@a</arg1>
    <arg2 type="int">5</arg2>
  </instruction>
  <instruction order="3" opcode="WRITE"><arg1 type="var">GF@a</arg1></instruction>
</program>`
	prog, err := Load(strings.NewReader(src))
	require.Nil(t, err)
	require.Equal(t, 3, prog.Len())
	assert.Equal(t, ippmachine.OpDefVar, prog.Instructions[0].Op)
	assert.Equal(t, ippmachine.OpMove, prog.Instructions[1].Op)
	assert.Equal(t, int64(5), prog.Instructions[1].Args[1].Literal.IntVal())
}

func TestLoadSortsByOrderAttribute(t *testing.T) {
	src := `<program language="IPPcode21">
  <instruction order="2" opcode="LABEL"><arg1 type="label">second</arg1></instruction>
  <instruction order="1" opcode="LABEL"><arg1 type="label">first</arg1></instruction>
</program>`
	prog, err := Load(strings.NewReader(src))
	require.Nil(t, err)
	assert.Equal(t, "first", prog.Instructions[0].Args[0].Label)
	assert.Equal(t, "second", prog.Instructions[1].Args[0].Label)
	assert.Equal(t, 0, prog.Labels["first"])
	assert.Equal(t, 1, prog.Labels["second"])
}

func TestLoadRejectsMalformedXML(t *testing.T) {
	_, err := Load(strings.NewReader(`<program language="IPPcode21">`))
	require.NotNil(t, err)
	assert.Equal(t, ipperr.BadXML, err.Code)
}

func TestLoadRejectsMissingLanguage(t *testing.T) {
	_, err := Load(strings.NewReader(`<program></program>`))
	require.NotNil(t, err)
	assert.Equal(t, ipperr.BadStruct, err.Code)
}

func TestLoadRejectsWrongLanguage(t *testing.T) {
	_, err := Load(strings.NewReader(`<program language="Pascal"></program>`))
	require.NotNil(t, err)
	assert.Equal(t, ipperr.BadStruct, err.Code)
}

func TestLoadRejectsDuplicateOrder(t *testing.T) {
	src := `<program language="IPPcode21">
  <instruction order="1" opcode="CREATEFRAME"></instruction>
  <instruction order="1" opcode="PUSHFRAME"></instruction>
</program>`
	_, err := Load(strings.NewReader(src))
	require.NotNil(t, err)
	assert.Equal(t, ipperr.BadStruct, err.Code)
}

func TestLoadRejectsUnknownOpcode(t *testing.T) {
	src := `<program language="IPPcode21">
  <instruction order="1" opcode="FROBNICATE"></instruction>
</program>`
	_, err := Load(strings.NewReader(src))
	require.NotNil(t, err)
	assert.Equal(t, ipperr.BadStruct, err.Code)
}

func TestLoadRejectsWrongArgCount(t *testing.T) {
	src := `<program language="IPPcode21">
  <instruction order="1" opcode="DEFVAR">
    <arg1 type="var">GF@a</arg1>
    <arg2 type="var">GF@b</arg2>
  </instruction>
</program>`
	_, err := Load(strings.NewReader(src))
	require.NotNil(t, err)
	assert.Equal(t, ipperr.BadStruct, err.Code)
}

func TestLoadRejectsDuplicateLabel(t *testing.T) {
	src := `<program language="IPPcode21">
  <instruction order="1" opcode="LABEL"><arg1 type="label">L</arg1></instruction>
  <instruction order="2" opcode="LABEL"><arg1 type="label">L</arg1></instruction>
</program>`
	_, err := Load(strings.NewReader(src))
	require.NotNil(t, err)
	assert.Equal(t, ipperr.UndefRedef, err.Code)
}

func TestLoadDecodesStringEscapes(t *testing.T) {
	src := `<program language="IPPcode21">
  <instruction order="1" opcode="DEFVAR"><arg1 type="var">GF@s</arg1></instruction>
  <instruction order="2" opcode="MOVE">
    <arg1 type="var">GF@s</arg1>
    <arg2 type="string">A\032B</arg2>
  </instruction>
</program>`
	prog, err := Load(strings.NewReader(src))
	require.Nil(t, err)
	assert.Equal(t, "A B", prog.Instructions[1].Args[1].Literal.StrVal())
}

func TestLoadRejectsBadVarIdentifier(t *testing.T) {
	src := `<program language="IPPcode21">
  <instruction order="1" opcode="DEFVAR"><arg1 type="var">XF@a</arg1></instruction>
</program>`
	_, err := Load(strings.NewReader(src))
	require.NotNil(t, err)
	assert.Equal(t, ipperr.BadStruct, err.Code)
}
