package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Mode 重复判定方式
type Mode string

const (
	// ModeStrict 类型 + 值完全一致才算重复（深比较）
	ModeStrict Mode = "strict"
	// ModeLoose 先转成字符串再比较：1 与 "1"、true 与 1 都算重复
	ModeLoose Mode = "loose"
)

const MsgDuplicates = "The collection contains duplicate values."

var (
	ErrUnknownMode  = errors.New("validation: unknown uniqueness mode")
	ErrEmptyMessage = errors.New("validation: uniqueness message must not be empty")

	errResource = errors.New("resource values are not supported")
)

// Unique 集合元素两两不同的约束
type Unique struct {
	mode    Mode
	message string
}

// NewUnique 配置错误在构造时立即返回，不拖到校验阶段
func NewUnique(mode Mode, message string) (*Unique, error) {
	switch mode {
	case ModeStrict, ModeLoose:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if message == "" {
		return nil, ErrEmptyMessage
	}
	return &Unique{mode: mode, message: message}, nil
}

// MustUnique 用于包级规则声明，配置错误直接 panic
func MustUnique(mode Mode, message string) *Unique {
	u, err := NewUnique(mode, message)
	if err != nil {
		panic(err)
	}
	return u
}

func (u *Unique) Mode() Mode { return u.mode }

// Validate 最多产出一条违规（不论有几对重复）。
// nil、"" 与空集合直接通过，非可迭代输入返回 *TypeError。
func (u *Unique) Validate(path string, value any) (Violations, error) {
	if isAbsent(value) {
		return nil, nil
	}
	var (
		dup bool
		err error
	)
	if u.mode == ModeStrict {
		dup, err = hasStrictDuplicates(value)
	} else {
		dup, err = hasLooseDuplicates(value)
	}
	if err != nil {
		return nil, &TypeError{Path: path, Msg: err.Error()}
	}
	if !dup {
		return nil, nil
	}
	return Violations{{Path: path, Message: u.message}}, nil
}

// Rule 适配为 Schema 规则
func (u *Unique) Rule() Rule {
	return func(_ context.Context, path string, v any) (Violations, error) {
		return u.Validate(path, v)
	}
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// each 遍历 slice / array / map 的值 / iter.Seq；fn 返回 false 提前结束
func each(value any, fn func(any) bool) error {
	if seq, ok := value.(iter.Seq[any]); ok {
		seq(fn)
		return nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if !fn(rv.Index(i).Interface()) {
				return nil
			}
		}
	case reflect.Map:
		it := rv.MapRange()
		for it.Next() {
			if !fn(it.Value().Interface()) {
				return nil
			}
		}
	default:
		return fmt.Errorf("expected an iterable value, %T given", value)
	}
	return nil
}

// strict：单次遍历，指纹哈希，遇到第一个重复即返回
func hasStrictDuplicates(value any) (bool, error) {
	seen := make(map[string]struct{})
	var (
		dup  bool
		ferr error
	)
	err := each(value, func(el any) bool {
		fp, e := fingerprint(el)
		if e != nil {
			ferr = e
			return false
		}
		if _, ok := seen[fp]; ok {
			dup = true
			return false
		}
		seen[fp] = struct{}{}
		return true
	})
	if err != nil {
		return false, err
	}
	if ferr != nil {
		return false, ferr
	}
	return dup, nil
}

// loose：必须先完整物化再和去重结果比较
func hasLooseDuplicates(value any) (bool, error) {
	var (
		items []string
		cerr  error
	)
	err := each(value, func(el any) bool {
		s, e := looseString(el)
		if e != nil {
			cerr = e
			return false
		}
		items = append(items, s)
		return true
	})
	if err != nil {
		return false, err
	}
	if cerr != nil {
		return false, cerr
	}
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return len(set) != len(items), nil
}

// isHandle 句柄类值（chan / func / 文件、连接等 io.Closer）不参与比较
func isHandle(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	case reflect.Pointer, reflect.Struct, reflect.Interface:
		if rv.CanInterface() {
			if _, ok := rv.Interface().(io.Closer); ok {
				return true
			}
		}
	}
	return false
}

func looseString(v any) (string, error) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if isHandle(rv) {
			return "", errResource
		}
		if rv.IsNil() {
			return "", nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return "", nil
	}
	if isHandle(rv) {
		return "", errResource
	}
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return "1", nil
		}
		return "", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.String:
		return rv.String(), nil
	}
	// 结构化值先归约为稳定编码（map 键已排序）
	if !rv.CanInterface() {
		return fingerprint(v)
	}
	b, err := json.Marshal(rv.Interface())
	if err != nil {
		return "", fmt.Errorf("cannot encode %s value: %w", rv.Type(), err)
	}
	return string(b), nil
}

// fingerprint 类型 + 值的规范编码，等价于深比较
func fingerprint(v any) (string, error) {
	f := fingerprinter{seen: make(map[visit]bool)}
	if err := f.write(reflect.ValueOf(v)); err != nil {
		return "", err
	}
	return f.b.String(), nil
}

type fingerprinter struct {
	b    strings.Builder
	seen map[visit]bool
}

// visit 标识正在展开的引用值；切片要带长度，子切片与原切片同址
type visit struct {
	p uintptr
	n int
	k reflect.Kind
}

// enter 引用已在当前路径上时返回 false（自引用）
func (f *fingerprinter) enter(v visit) bool {
	if f.seen[v] {
		f.b.WriteString("cycle")
		return false
	}
	f.seen[v] = true
	return true
}

func (f *fingerprinter) write(rv reflect.Value) error {
	if !rv.IsValid() {
		f.b.WriteString("nil")
		return nil
	}
	if isHandle(rv) {
		return errResource
	}
	f.b.WriteString(rv.Type().String())
	f.b.WriteByte('(')
	defer f.b.WriteByte(')')

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			f.b.WriteString("nil")
			return nil
		}
		v := visit{p: rv.Pointer(), k: reflect.Pointer}
		if !f.enter(v) {
			return nil
		}
		defer delete(f.seen, v)
		return f.write(rv.Elem())
	case reflect.Interface:
		if rv.IsNil() {
			f.b.WriteString("nil")
			return nil
		}
		return f.write(rv.Elem())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			f.b.WriteString("nil")
			return nil
		}
		f.b.WriteString(strconv.Itoa(rv.Len()))
		if rv.Kind() == reflect.Slice && rv.Len() > 0 {
			v := visit{p: rv.Pointer(), n: rv.Len(), k: reflect.Slice}
			if !f.enter(v) {
				return nil
			}
			defer delete(f.seen, v)
		}
		for i := 0; i < rv.Len(); i++ {
			f.b.WriteByte(';')
			if err := f.write(rv.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		if rv.IsNil() {
			f.b.WriteString("nil")
			return nil
		}
		v := visit{p: rv.Pointer(), k: reflect.Map}
		if !f.enter(v) {
			return nil
		}
		defer delete(f.seen, v)
		entries := make([]string, 0, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			sub := fingerprinter{seen: f.seen}
			if err := sub.write(it.Key()); err != nil {
				return err
			}
			sub.b.WriteString("=>")
			if err := sub.write(it.Value()); err != nil {
				return err
			}
			entries = append(entries, sub.b.String())
		}
		sort.Strings(entries)
		f.b.WriteString(strings.Join(entries, ";"))
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			f.b.WriteString(t.Field(i).Name)
			f.b.WriteByte(':')
			if err := f.write(rv.Field(i)); err != nil {
				return err
			}
			f.b.WriteByte(';')
		}
	case reflect.String:
		f.b.WriteString(strconv.Quote(rv.String()))
	case reflect.Bool:
		f.b.WriteString(strconv.FormatBool(rv.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f.b.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f.b.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		f.b.WriteString(strconv.FormatFloat(rv.Float(), 'g', -1, 64))
	case reflect.Complex64, reflect.Complex128:
		f.b.WriteString(strconv.FormatComplex(rv.Complex(), 'g', -1, 128))
	}
	return nil
}
