package tplengine

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateEngine_Render(t *testing.T) {
	fsys := fstest.MapFS{
		"task.tpl":   {Data: []byte(`{{ pyvar .ID }} = op(task_id={{ pystr .ID }})`)},
		"sprig.tpl":  {Data: []byte(`{{ .Name | upper }}`)},
		"broken.tpl": {Data: []byte(`{{ .Missing }`)},
	}

	t.Run("Should render templates with python helpers", func(t *testing.T) {
		engine := NewEngine(fsys, nil)
		out, err := engine.Render("task", map[string]any{"ID": "load-data"})
		require.NoError(t, err)
		assert.Equal(t, `load_data = op(task_id="load-data")`, out)
	})

	t.Run("Should expose sprig functions", func(t *testing.T) {
		out, err := NewEngine(fsys, nil).Render("sprig", map[string]any{"Name": "dag"})
		require.NoError(t, err)
		assert.Equal(t, "DAG", out)
	})

	t.Run("Should fail on missing keys", func(t *testing.T) {
		_, err := NewEngine(fsys, nil).Render("task", map[string]any{})
		assert.ErrorContains(t, err, "template execution error")
	})

	t.Run("Should fail on unknown and malformed templates", func(t *testing.T) {
		engine := NewEngine(fsys, nil)
		_, err := engine.Render("absent", nil)
		assert.ErrorContains(t, err, "template not found")
		_, err = engine.Render("broken", nil)
		assert.ErrorContains(t, err, "failed to parse template")
	})

	t.Run("Should reuse parsed templates from the cache", func(t *testing.T) {
		cache, err := NewCache(4)
		require.NoError(t, err)
		engine := NewEngine(fsys, cache)
		for range 3 {
			_, err := engine.Render("sprig", map[string]any{"Name": "x"})
			require.NoError(t, err)
		}
		hits, misses := cache.Stats()
		assert.Equal(t, int64(2), hits)
		assert.Equal(t, int64(1), misses)
		assert.Equal(t, 1, cache.Len())
	})
}

func TestPyVar(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MyTask", "my_task"},
		{"load-data", "load_data"},
		{"x.y", "x_y"},
		{"class", "class_"},
		{"", "task_"},
	}
	for _, tt := range tests {
		t.Run("Should convert "+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, PyVar(tt.in))
		})
	}
}

func TestPyVal(t *testing.T) {
	t.Run("Should render scalars", func(t *testing.T) {
		assert.Equal(t, "None", PyVal(nil))
		assert.Equal(t, "True", PyVal(true))
		assert.Equal(t, "False", PyVal(false))
		assert.Equal(t, "3", PyVal(3))
		assert.Equal(t, `"say \"hi\""`, PyVal(`say "hi"`))
	})

	t.Run("Should render collections with sorted keys", func(t *testing.T) {
		assert.Equal(t, `["a", "b"]`, PyVal([]string{"a", "b"}))
		assert.Equal(t, "[]", PyVal([]string(nil)))
		assert.Equal(t, `{"a": "1", "b": ["x"]}`, PyVal(map[string]any{"b": []string{"x"}, "a": "1"}))
	})

	t.Run("Should keep jinja expressions intact", func(t *testing.T) {
		assert.Equal(t, `"{{ params['q'] }}"`, PyStr("{{ params['q'] }}"))
	})
}

func TestNewCache(t *testing.T) {
	t.Run("Should fall back to the default size", func(t *testing.T) {
		cache, err := NewCache(0)
		require.NoError(t, err)
		_, ok := cache.Get("missing")
		assert.False(t, ok)
	})
}
