package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/mailapi"
)

func TestGeminiBusinessExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "chinese body", text: "您好\n\n您的一次性验证码为：\n\nQX7M2P\n\n此验证码将在 10 分钟后失效。", want: "QX7M2P"},
		{name: "ascii colon", text: "您的一次性验证码为: AB12CD", want: "AB12CD"},
		{name: "english body", text: "Your one-time verification code is:\n\n9ZZ8YY\n", want: "9ZZ8YY"},
		{name: "code too long", text: "您的一次性验证码为：ABCDEFG", want: ""},
		{name: "no phrase", text: "QX7M2P", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GeminiBusiness.Extract(tt.text))
		})
	}
}

func TestChatGPTExtract(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"你的 ChatGPT 代码为 123456", "123456"},
		{"Your ChatGPT code is 654321", "654321"},
		{"Tu código es 111222", "111222"},
		{"Welcome to ChatGPT", ""},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, ChatGPT.Extract(tt.subject))
		})
	}
}

func TestFind(t *testing.T) {
	t.Run("subject must match exactly", func(t *testing.T) {
		emails := []mailapi.Email{
			{Subject: "Re: Gemini Business 验证码", Text: "您的一次性验证码为：\n\nAAAAAA"},
			{Subject: "Gemini Business 验证码", Text: "您的一次性验证码为：\n\nBBBBBB"},
		}
		code, email, ok := GeminiBusiness.Find(emails)
		assert.True(t, ok)
		assert.Equal(t, "BBBBBB", code)
		assert.Equal(t, emails[1].Text, email.Text)
	})

	t.Run("newest first wins", func(t *testing.T) {
		emails := []mailapi.Email{
			{Subject: "Gemini Business 验证码", Text: "您的一次性验证码为：\n\nNEW111"},
			{Subject: "Gemini Business 验证码", Text: "您的一次性验证码为：\n\nOLD222"},
		}
		code, _, ok := GeminiBusiness.Find(emails)
		assert.True(t, ok)
		assert.Equal(t, "NEW111", code)
	})

	t.Run("html only body", func(t *testing.T) {
		emails := []mailapi.Email{
			{Subject: "Gemini Business 验证码", Content: "<div><p>您的一次性验证码为：</p><p><b>HT9ML0</b></p></div>"},
		}
		code, _, ok := GeminiBusiness.Find(emails)
		assert.True(t, ok)
		assert.Equal(t, "HT9ML0", code)
	})

	t.Run("subject source", func(t *testing.T) {
		emails := []mailapi.Email{
			{Subject: "hello"},
			{Subject: "Your ChatGPT code is 246810", Name: "OpenAI"},
		}
		code, email, ok := ChatGPT.Find(emails)
		assert.True(t, ok)
		assert.Equal(t, "246810", code)
		assert.Equal(t, "OpenAI", email.Sender())
	})

	t.Run("nothing", func(t *testing.T) {
		_, _, ok := GeminiBusiness.Find(nil)
		assert.False(t, ok)
	})
}
