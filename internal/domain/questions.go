package domain

// Question es un item del cuestionario tal como se muestra al cliente.
type Question struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// ResponseScale son las etiquetas de la escala 0-4.
var ResponseScale = [MaxItemValue + 1]string{
	"En absoluto",
	"Un poco",
	"Bastante",
	"Mucho",
	"Totalmente",
}

var questionTexts = [ItemCount]string{
	"Luché para resolver el problema",
	"Me culpé a mí mismo",
	"Dejé salir mis sentimientos para reducir el estrés",
	"Deseé que la situación nunca hubiera empezado",
	"Encontré a alguien que escuchó mi problema",
	"Repasé el problema una y otra vez en mi mente y al final vi las cosas de una forma diferente",
	"No dejé que me afectara; evité pensar en ello demasiado",
	"Pasé algún tiempo solo",
	"Me esforcé para resolver los problemas de la situación",
	"Me di cuenta de que era personalmente responsable de mis dificultades y me lo reproché",
	"Expresé mis emociones, lo que sentía",
	"Deseé que la situación no existiera o que de alguna manera terminase",
	"Hablé con una persona de confianza",
	"Cambié la forma en que veía la situación para que las cosas no parecieran tan malas",
	"Traté de olvidar por completo el asunto",
	"Evité estar con gente",
	"Hice frente al problema",
	"Me critiqué por lo ocurrido",
	"Analicé mis sentimientos y simplemente los dejé salir",
	"Deseé no encontrarme nunca más en esa situación",
	"Dejé que mis amigos me echaran una mano",
	"Me convencí de que las cosas no eran tan malas como parecían",
	"Quité importancia a la situación y no quise preocuparme de más",
	"Oculté lo que pensaba y sentía",
	"Supe lo que había que hacer, así que doblé mis esfuerzos y traté con más ímpetu de hacer que las cosas funcionaran",
	"Me recriminé por permitir que esto ocurriera",
	"Dejé desahogar mis emociones",
	"Deseé poder cambiar lo que había sucedido",
	"Pasé algún tiempo con mis amigos",
	"Me pregunté qué era realmente importante y descubrí que las cosas no estaban tan mal después de todo",
	"Me comporté como si nada hubiera pasado",
	"No dejé que nadie supiera cómo me sentía",
	"Mantuve mi postura y luché por lo que quería",
	"Fue un error mío, así que tenía que sufrir las consecuencias",
	"Mis sentimientos eran abrumadores y estallaron",
	"Me imaginé que las cosas podrían ser diferentes",
	"Pedí consejos a un amigo o familiar que respeto",
	"Me fijé en el lado bueno de las cosas",
	"Evité pensar o hacer nada",
	"Traté de ocultar mis sentimientos",
}

// Questions devuelve las 40 preguntas numeradas 1..40.
func Questions() []Question {
	out := make([]Question, 0, ItemCount)
	for i, text := range questionTexts {
		out = append(out, Question{Number: i + 1, Text: text})
	}
	return out
}
