package autotype

// CPC key identifiers, one per physical key this package can name or
// type. Values are arbitrary and stable only within this package;
// internal/machine's keyboard matrix owns the real row/column map and
// translates these via its own lookup.
const (
	keyEsc Key = iota + 1
	keyReturn
	keySpace
	keyTab
	keyDel
	keyCopy
	keyControl
	keyLShift
	keyRShift
	keyCurUp
	keyCurDown
	keyCurLeft
	keyCurRight
	keyClr
	keyF0
	keyF1
	keyF2
	keyF3
	keyF4
	keyF5
	keyF6
	keyF7
	keyF8
	keyF9
	keyJ0Up
	keyJ0Down
	keyJ0Left
	keyJ0Right
	keyJ0Fire1
	keyJ0Fire2
	keyJ1Up
	keyJ1Down
	keyJ1Left
	keyJ1Right
	keyJ1Fire1
	keyJ1Fire2

	keyA
	keyB
	keyC
	keyD
	keyE
	keyF
	keyG
	keyH
	keyI
	keyJ
	keyK
	keyL
	keyM
	keyN
	keyO
	keyP
	keyQ
	keyR
	keyS
	keyT
	keyU
	keyV
	keyW
	keyX
	keyY
	keyZ

	keyShiftA
	keyShiftB
	keyShiftC
	keyShiftD
	keyShiftE
	keyShiftF
	keyShiftG
	keyShiftH
	keyShiftI
	keyShiftJ
	keyShiftK
	keyShiftL
	keyShiftM
	keyShiftN
	keyShiftO
	keyShiftP
	keyShiftQ
	keyShiftR
	keyShiftS
	keyShiftT
	keyShiftU
	keyShiftV
	keyShiftW
	keyShiftX
	keyShiftY
	keyShiftZ

	key0
	key1
	key2
	key3
	key4
	key5
	key6
	key7
	key8
	key9

	keyPeriod
	keyComma
	keySemicolon
	keyColon
	keyMinus
	keyPlus
	keySlash
	keyAsterisk
	keyEqual
	keyLeftParen
	keyRightParen
	keyLBracket
	keyRBracket
	keyLCBrace
	keyRCBrace
	keyLess
	keyGreater
	keyQuestion
	keyExclaim
	keyAt
	keyHash
	keyDollar
	keyPercent
	keyPower
	keyAmpersand
	keyPipe
	keyBackslash
	keyDblQuote
	keyQuote
	keyBackquote
	keyUnderscore
)
