package application

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecraft/backend/internal/features/preview/domain"
	"codecraft/backend/internal/features/preview/infrastructure"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	sb, err := infrastructure.NewSandbox(2 * time.Second)
	require.NoError(t, err)
	return NewRenderer(infrastructure.Transpiler{}, sb, zerolog.Nop())
}

func TestRenderSuccess(t *testing.T) {
	res := newTestRenderer(t).Render(context.Background(), `
import React, { useState, useMemo } from "react"
import { Button } from "@/components/ui/button"
import { cn } from "@/lib/utils"
import { LineChart, Line } from "recharts"

export default function App() {
  const [count, setCount] = useState(0)
  const doubled = useMemo(() => count * 2, [count])
  return (
    <div className={cn("p-4", count > 0 && "hidden")}>
      <Button onClick={() => setCount(count + 1)}>Clicked {doubled}</Button>
      <LineChart data={[]}><Line dataKey="v" /></LineChart>
    </div>
  )
}`)
	require.True(t, res.OK(), "%+v", res.Failure)
	assert.Contains(t, res.HTML, `<div class="p-4">`)
	assert.Contains(t, res.HTML, "<button")
	assert.Contains(t, res.HTML, "Clicked 0")
	assert.Contains(t, res.HTML, `data-recharts="line-chart"`)
	assert.Empty(t, res.Warnings)
}

func TestRenderLoopFailure(t *testing.T) {
	res := newTestRenderer(t).Render(context.Background(), `
import { useState } from "react"
export default function App() {
  const [value, setValue] = useState(0)
  setValue(1)
  return <p>{value}</p>
}`)
	require.False(t, res.OK())
	assert.Equal(t, domain.StageRuntime, res.Failure.Stage)
	assert.Equal(t, "Too many re-renders. React limits the number of renders to prevent an infinite loop.", res.Failure.Message)
}

func TestRenderUndeclaredSetState(t *testing.T) {
	code := "export default function App(){ setState(1); return null }"
	res := newTestRenderer(t).Render(context.Background(), code)

	require.False(t, res.OK())
	assert.Contains(t, res.Failure.Message, "setState")
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, "set-state-call", res.Warnings[0].Rule)
}

func TestRenderUnknownModule(t *testing.T) {
	res := newTestRenderer(t).Render(context.Background(), `
import { motion } from "framer-motion"
export default function App() { return <motion.div /> }`)
	require.False(t, res.OK())
	assert.Equal(t, "Cannot find module 'framer-motion'", res.Failure.Message)
}

func TestRenderMissingDefaultExport(t *testing.T) {
	res := newTestRenderer(t).Render(context.Background(), `export function App() { return <div /> }`)
	require.False(t, res.OK())
	assert.Contains(t, res.Failure.Message, "default export")
}

func TestRenderSyntaxError(t *testing.T) {
	res := newTestRenderer(t).Render(context.Background(), "export default function App() { return <div> }")
	require.False(t, res.OK())
	assert.Equal(t, domain.StageTranspile, res.Failure.Stage)
}

func TestRenderEmptyCode(t *testing.T) {
	res := newTestRenderer(t).Render(context.Background(), "  ")
	require.False(t, res.OK())
}

func TestAnalyze(t *testing.T) {
	code := `
useEffect(() => { setCount(count + 1) })
class A extends React.Component { componentDidUpdate() {} componentWillUpdate() {} }`
	var rules []string
	for _, w := range Analyze(code) {
		rules = append(rules, w.Rule)
	}
	assert.Equal(t, []string{"effect-without-deps", "component-did-update", "component-will-update"}, rules)

	assert.Empty(t, Analyze(`useEffect(() => { load() }, [])`))
}
