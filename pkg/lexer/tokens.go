package lexer

var tokenNames = map[TokenType]string{
	TokAnd:         "and",
	TokElse:        "else",
	TokEnd:         "end",
	TokFalse:       "False",
	TokIf:          "if",
	TokLet:         "let",
	TokMatch:       "match",
	TokNot:         "not",
	TokOr:          "or",
	TokThen:        "then",
	TokTrue:        "True",
	TokIntLit:      "int",
	TokFloatLit:    "float",
	TokStringLit:   "string",
	TokName:        "name",
	TokTypeName:    "type name",
	TokArrow:       "->",
	TokStar:        "*",
	TokBSlash:      "\\",
	TokCaret:       "^",
	TokColon:       ":",
	TokColonColon:  "::",
	TokColonEqual:  ":=",
	TokComma:       ",",
	TokDash:        "-",
	TokDiamond:     "<>",
	TokDot:         ".",
	TokEllipsis:    "..",
	TokEqual:       "=",
	TokFSlash:      "/",
	TokFSlashEqual: "/=",
	TokGreater:     ">",
	TokGreaterEq:   ">=",
	TokLess:        "<",
	TokLessEq:      "<=",
	TokPercent:     "%",
	TokPipe:        "|",
	TokPipeGreater: "|>",
	TokPlus:        "+",
	TokTilde:       "~",
	TokLParen:      "(",
	TokRParen:      ")",
	TokLBracket:    "[",
	TokRBracket:    "]",
	TokLBrace:      "{",
	TokRBrace:      "}",
	TokNewline:     "newline",
	TokEOL:         "eol",
	TokEOF:         "eof",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}
