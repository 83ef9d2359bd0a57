package telegram

import (
	"strings"

	"github.com/lithammer/dedent"
)

func formatReplyText(text string) string {
	return strings.TrimSpace(dedent.Dedent(text))
}

var (
	MsgHelp = formatReplyText(`
		안녕하세요! 물건 사진을 보내주세요.

		사진 속 물건이 무엇인지 알려드리고,
		활용할 수 있는 방법 3가지를 추천해드립니다.

		사진 또는 이미지 파일(JPEG, PNG, GIF, WEBP)을 보낼 수 있습니다.
	`)
	MsgSendPhoto           = "분석할 물건 사진을 보내주세요."
	MsgUnsupportedDocument = "이미지 파일만 분석할 수 있습니다."
	MsgUnknownCommand      = "알 수 없는 명령어입니다. /help 를 입력해보세요."
	MsgDownloadFailed      = "사진을 내려받지 못했습니다. 다시 보내주세요."
)
