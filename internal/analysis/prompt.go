package analysis

import (
	"strings"

	"github.com/lithammer/dedent"
)

// Prompt asks the model for the object name and at least three usages as a
// bare JSON object.
var Prompt = strings.TrimSpace(dedent.Dedent(`
	이 이미지에 있는 물건의 이름과 쓰임새를 분석해주세요.

	다음 JSON 형식으로만 응답해주세요 (다른 텍스트 없이):
	{
	  "objectName": "물건의 한국어 이름",
	  "usages": [
	    { "title": "용도 제목", "description": "설명" },
	    { "title": "용도 제목", "description": "설명" },
	    { "title": "용도 제목", "description": "설명" }
	  ]
	}

	3가지 이상의 다양한 사용 방법을 알려주세요.
`))
