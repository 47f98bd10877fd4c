package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgcrud/data/named"
	"pgcrud/errors"
)

// rewrite 辅助：将命名 SQL 改写为位置 SQL，便于断言最终语句
func rewrite(t *testing.T, q string, params *named.Params) (string, []any) {
	t.Helper()
	out, args, err := named.Rewrite(q, params, named.Strict())
	require.NoError(t, err)
	return out, args
}

func TestWhere_KeyCounts(t *testing.T) {
	tests := []struct {
		name     string
		criteria *named.Params
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "nil条件",
			criteria: nil,
			wantSQL:  "DELETE FROM users",
			wantArgs: []any{},
		},
		{
			name:     "空条件",
			criteria: named.New(),
			wantSQL:  "DELETE FROM users",
			wantArgs: []any{},
		},
		{
			name:     "单个键",
			criteria: named.FromPairs("id", 1),
			wantSQL:  "DELETE FROM users WHERE id = $1",
			wantArgs: []any{1},
		},
		{
			name:     "多个键",
			criteria: named.FromPairs("status", "active", "age", 30),
			wantSQL:  "DELETE FROM users WHERE status = $1 AND age = $2",
			wantArgs: []any{"active", 30},
		},
		{
			name:     "static_where与等值条件",
			criteria: UnsafeStaticWhere(named.FromPairs("status", "active"), "age > 18"),
			wantSQL:  "DELETE FROM users WHERE status = $1 AND age > 18",
			wantArgs: []any{"active"},
		},
		{
			name:     "只有static_where",
			criteria: UnsafeStaticWhere(nil, "deleted_at IS NOT NULL"),
			wantSQL:  "DELETE FROM users WHERE deleted_at IS NOT NULL",
			wantArgs: []any{},
		},
		{
			name:     "空static_where忽略",
			criteria: UnsafeStaticWhere(named.FromPairs("id", 2), "   "),
			wantSQL:  "DELETE FROM users WHERE id = $1",
			wantArgs: []any{2},
		},
		{
			name:     "保留键不参与等值条件",
			criteria: named.FromPairs("orderBy", "id", "limit", 5, "offset", 10, "id", 3),
			wantSQL:  "DELETE FROM users WHERE id = $1",
			wantArgs: []any{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, params := DeleteSQL("users", tt.criteria)
			out, args := rewrite(t, q, params)
			assert.Equal(t, tt.wantSQL, out)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestWhere_StaticWhereReferencesCriteria(t *testing.T) {
	criteria := UnsafeStaticWhere(named.FromPairs("status", "active"), "previous_status <> :status")

	q, params := SelectSQL("users", criteria)
	assert.Equal(t, "SELECT * FROM users WHERE status = :w_status AND previous_status <> :status", q)

	out, args := rewrite(t, q, params)
	assert.Equal(t, "SELECT * FROM users WHERE status = $1 AND previous_status <> $2", out)
	assert.Equal(t, []any{"active", "active"}, args)
}

func TestBuildWhere_DoesNotMutateCriteria(t *testing.T) {
	criteria := named.FromPairs("id", 1)
	clause, params := BuildWhere(criteria)
	assert.Equal(t, " WHERE id = :w_id", clause)
	assert.Equal(t, []string{"id"}, criteria.Keys())
	assert.Equal(t, []string{"id", "w_id"}, params.Keys())
}

func TestWhere_DottedColumn(t *testing.T) {
	q, params := SelectSQL("users u", named.FromPairs("u.id", 1, "u_id", 2))
	assert.Equal(t, "SELECT * FROM users u WHERE u.id = :w_u_id AND u_id = :w_u_id_2", q)

	out, args := rewrite(t, q, params)
	assert.Equal(t, "SELECT * FROM users u WHERE u.id = $1 AND u_id = $2", out)
	assert.Equal(t, []any{1, 2}, args)
}

func TestWhere_GeneratedNamesNeverCollide(t *testing.T) {
	t.Run("替换后重名且后缀已被占用", func(t *testing.T) {
		q, params := SelectSQL("t", named.FromPairs("a.b", 1, "a_b", 2, "a_b_2", 3))
		assert.Equal(t, "SELECT * FROM t WHERE a.b = :w_a_b AND a_b = :w_a_b_2 AND a_b_2 = :w_a_b_2_2", q)

		_, args := rewrite(t, q, params)
		assert.Equal(t, []any{1, 2, 3}, args)
	})

	t.Run("合成名不覆盖原始键", func(t *testing.T) {
		criteria := UnsafeStaticWhere(named.FromPairs("id", 1, "w_id", 2), "x = :w_id")
		q, params := SelectSQL("t", criteria)
		assert.Equal(t, "SELECT * FROM t WHERE id = :w_id_2 AND w_id = :w_w_id AND x = :w_id", q)

		_, args := rewrite(t, q, params)
		assert.Equal(t, []any{1, 2, 2}, args)
	})

	t.Run("SET与WHERE同列且记录含前缀键", func(t *testing.T) {
		q, params, err := UpdateSQL("t", named.FromPairs("name", "new", "u_name", "raw"), named.FromPairs("name", "old"))
		require.NoError(t, err)

		_, args := rewrite(t, q, params)
		assert.Equal(t, []any{"new", "raw", "old"}, args)
	})
}

func TestBuildOrderBy(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "字符串", value: "created_at DESC", want: " ORDER BY created_at DESC"},
		{name: "字符串切片", value: []string{"age", "name DESC"}, want: " ORDER BY age, name DESC"},
		{name: "any切片", value: []any{"age", "id"}, want: " ORDER BY age, id"},
		{name: "空字符串", value: "", want: ""},
		{name: "nil", value: nil, want: ""},
		{name: "空切片", value: []string{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildOrderBy(named.FromPairs(KeyOrderBy, tt.value)))
		})
	}
	assert.Equal(t, "", BuildOrderBy(nil))
}

func TestListSQL(t *testing.T) {
	q, _ := ListSQL("users", named.FromPairs("status", "active", KeyOrderBy, []string{"age", "id"}))
	assert.Equal(t, "SELECT * FROM users WHERE status = :w_status ORDER BY age, id", q)
}

func TestPageSQL(t *testing.T) {
	q, params, err := PageSQL("users", named.FromPairs("status", 1, KeyLimit, 10, KeyOffset, "30", KeyOrderBy, "id"))
	require.NoError(t, err)
	out, args := rewrite(t, q, params)
	assert.Equal(t, "SELECT * FROM users WHERE status = $1 ORDER BY id LIMIT 10 OFFSET 30", out)
	assert.Equal(t, []any{1}, args)

	q, _, err = PageSQL("users", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users LIMIT 20 OFFSET 0", q)
}

func TestLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		criteria   *named.Params
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{name: "默认值", criteria: nil, wantLimit: 20, wantOffset: 0},
		{name: "limit为0使用默认", criteria: named.FromPairs(KeyLimit, 0), wantLimit: 20},
		{name: "整数", criteria: named.FromPairs(KeyLimit, 10, KeyOffset, 5), wantLimit: 10, wantOffset: 5},
		{name: "JSON数字", criteria: named.FromPairs(KeyLimit, float64(15), KeyOffset, int64(3)), wantLimit: 15, wantOffset: 3},
		{name: "数字字符串", criteria: named.FromPairs(KeyLimit, "25"), wantLimit: 25},
		{name: "负数", criteria: named.FromPairs(KeyOffset, -1), wantErr: true},
		{name: "非数字", criteria: named.FromPairs(KeyLimit, "ten"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset, err := LimitOffset(tt.criteria)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, errors.ErrCodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestCountSQL(t *testing.T) {
	q, params := CountSQL("users", named.FromPairs("status", "active", KeyLimit, 10, KeyOrderBy, "id"))
	out, args := rewrite(t, q, params)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM users WHERE status = $1", out)
	assert.Equal(t, []any{"active"}, args)
}

func TestInsertSQL(t *testing.T) {
	record := named.New().Set("name", "alice").Set("age", 30).Set("email", "a@x")
	q, params, err := InsertSQL("users", record)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (name, age, email) VALUES (:name, :age, :email)", q)

	out, args := rewrite(t, q, params)
	assert.Equal(t, "INSERT INTO users (name, age, email) VALUES ($1, $2, $3)", out)
	assert.Equal(t, []any{"alice", 30, "a@x"}, args)

	q, _, err = InsertSQL("users", named.FromPairs("name", "bob"), "id", " ", "created_at")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (name) VALUES (:name) RETURNING id, created_at", q)
}

func TestInsertSQL_EmptyRecord(t *testing.T) {
	_, _, err := InsertSQL("users", named.New())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodeInvalidInput))

	_, _, err = InsertSQL("users", nil)
	assert.Error(t, err)
}

func TestUpdateSQL(t *testing.T) {
	tests := []struct {
		name     string
		record   *named.Params
		criteria *named.Params
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "无条件",
			record:   named.FromPairs("status", "inactive"),
			criteria: nil,
			wantSQL:  "UPDATE users SET status = $1",
			wantArgs: []any{"inactive"},
		},
		{
			name:     "多列多条件",
			record:   named.FromPairs("name", "bob", "age", 31),
			criteria: named.FromPairs("id", 7, "status", "active"),
			wantSQL:  "UPDATE users SET name = $1, age = $2 WHERE id = $3 AND status = $4",
			wantArgs: []any{"bob", 31, 7, "active"},
		},
		{
			name:     "同列出现在SET与WHERE",
			record:   named.FromPairs("status", "archived"),
			criteria: named.FromPairs("status", "active"),
			wantSQL:  "UPDATE users SET status = $1 WHERE status = $2",
			wantArgs: []any{"archived", "active"},
		},
		{
			name:     "static_where",
			record:   named.FromPairs("status", "archived"),
			criteria: UnsafeStaticWhere(named.FromPairs("status", "active"), "updated_at < now()"),
			wantSQL:  "UPDATE users SET status = $1 WHERE status = $2 AND updated_at < now()",
			wantArgs: []any{"archived", "active"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, params, err := UpdateSQL("users", tt.record, tt.criteria)
			require.NoError(t, err)
			out, args := rewrite(t, q, params)
			assert.Equal(t, tt.wantSQL, out)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestUpdateSQL_NamedForm(t *testing.T) {
	q, params, err := UpdateSQL("users", named.FromPairs("status", "archived"), named.FromPairs("status", "active"))
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET status = :u_status WHERE status = :w_status", q)

	u, _ := params.Get("u_status")
	w, _ := params.Get("w_status")
	assert.Equal(t, "archived", u)
	assert.Equal(t, "active", w)
}

func TestUpdateSQL_EmptyRecord(t *testing.T) {
	_, _, err := UpdateSQL("users", named.New(), named.FromPairs("id", 1))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodeInvalidInput))
}

func TestSanitizeParamName(t *testing.T) {
	assert.Equal(t, "u_id", sanitizeParamName("u.id"))
	assert.Equal(t, "first_name", sanitizeParamName("first_name"))
	assert.Equal(t, "_", sanitizeParamName(""))
	assert.Equal(t, "a_b_", sanitizeParamName(`a"b"`))
}

func TestIsReserved(t *testing.T) {
	for _, k := range []string{"orderBy", "static_where", "limit", "offset"} {
		assert.True(t, IsReserved(k), k)
	}
	assert.False(t, IsReserved("orderby"))
	assert.False(t, IsReserved("id"))
}
