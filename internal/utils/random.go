package utils

import (
	"math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"
)

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
var digits = "0123456789"

// RandomID 生成前段字母后段数字的随机标识
func RandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// TicketID 生成绑定二维码的短时效 ticket
func TicketID() string {
	return "tk_" + RandomID(12, 4)
}

// ShopSlug 根据店铺中文名生成拼音标识，后附随机数字避免撞名
func ShopSlug(name string) string {
	pinyinArray := pinyin.LazyConvert(name, nil)

	var b strings.Builder
	for _, p := range pinyinArray {
		b.WriteString(p)
	}
	if b.Len() == 0 {
		b.WriteString("shop")
	}

	digitsLength := rand.Intn(3) + 2
	for i := 0; i < digitsLength; i++ {
		b.WriteByte(digits[rand.Intn(len(digits))])
	}

	return b.String()
}
