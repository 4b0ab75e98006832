package ai

import "fmt"

const systemInstruction = "انت مساعد افتراضي مصري. 🇪🇬 مهمتك هي مساعدة المستخدمين من خلال الرد عليهم بأسلوب ودود ومساعد.\n" +
	"استخدم اللغة المصرية العامية فقط.\n" +
	"تأكد أن ردك يكون بناءً على شخصية المستخدم: %s\n" +
	"اجعل ردك طبيعياً ومختصراً قدر الإمكان."

// Composer turns persona text and the latest user message into the prompt
// string a backend expects. Pure; each backend ships its own framing so the
// orchestrator never changes when the backend does.
type Composer interface {
	Compose(persona, userMessage string) string
}

// ChatTemplateComposer emits the chat-template markers local instruction
// models are trained on.
type ChatTemplateComposer struct{}

func (ChatTemplateComposer) Compose(persona, userMessage string) string {
	return fmt.Sprintf("<|im_start|>system\n"+systemInstruction+"\n<|im_end|>\n"+
		"<|im_start|>user\n%s<|im_end|>\n"+
		"<|im_start|>assistant\n",
		persona, userMessage)
}

// PlainComposer concatenates the framing for hosted APIs that take a single
// untagged prompt.
type PlainComposer struct{}

func (PlainComposer) Compose(persona, userMessage string) string {
	return fmt.Sprintf(systemInstruction+"\n\n%s", persona, userMessage)
}
