package validation

import "regexp"

const (
	NameMaxLength    = 48
	SurnameMaxLength = 255
	EmailMaxLength   = 255
	NoteMaxLength    = 4096
)

var (
	// 单词以大写开头；' 和 - 两侧必须是字母；单词之间一个空格
	nameGrammar = regexp.MustCompile(`^\p{Lu}\p{L}*(?:['-]\p{L}+)*(?: \p{Lu}\p{L}*(?:['-]\p{L}+)*)*$`)
	// 同样的标点规则，但不要求首字母大写
	surnameGrammar = regexp.MustCompile(`^\p{L}+(?:['-]\p{L}+)*(?: \p{L}+(?:['-]\p{L}+)*)*$`)
	hasUppercase   = regexp.MustCompile(`\p{Lu}`)

	rolesUnique = MustUnique(ModeStrict, MsgDuplicates)
)

// UserSchema 字段顺序：name, surname, email, gender, roles, note, active。
// emailExtra 追加在 email 语法规则之后（通常是唯一性检查）。
func UserSchema(emailExtra ...Rule) Schema {
	email := []Rule{NotBlank(), MaxLength(EmailMaxLength), Email()}
	email = append(email, emailExtra...)
	return Schema{
		{Path: "name", Rules: []Rule{NotBlank(), MaxLength(NameMaxLength), Match(nameGrammar, MsgInvalid)}},
		{Path: "surname", Rules: []Rule{NotBlank(), MaxLength(SurnameMaxLength), MatchAll(MsgInvalid, surnameGrammar, hasUppercase)}},
		{Path: "email", Rules: email},
		{Path: "gender", Rules: []Rule{NotNull()}},
		{Path: "roles", Rules: []Rule{NotNull(), MinCount(1), rolesUnique.Rule()}},
		{Path: "note", Rules: []Rule{MaxLength(NoteMaxLength)}},
		{Path: "active", Rules: []Rule{NotNull()}},
	}
}
