package lexicon

// Built-in multilingual phrase tables (English, Portuguese, Spanish).
// Phrases are abstract behavioral indicators, never explicit content.
// Deployments tune these via Registry.LoadFile.

var emotionalDependencyPhrases = []string{
	// English
	"special", "unique", "understand", "only one", "secret",
	"nobody else", "trust me", "always there", "need you",
	"miss you", "thinking about", "closest friend", "special bond",
	// Portuguese
	"especial", "único", "única", "entende", "entender", "compreende",
	"ninguém mais", "só você", "confie em mim", "sempre aqui",
	"preciso de você", "sinto sua falta", "pensando em você",
	"melhor amigo", "amigo especial", "ninguém liga", "ninguém entende",
	"você é diferente", "te entendo", "te compreendo", "pode me chamar",
	// Spanish
	"entiende", "comprende",
	"nadie más", "solo tú", "confía en mí", "siempre aquí",
	"te necesito", "te extraño", "pensando en ti", "mejor amigo",
}

var isolationPhrases = []string{
	// English
	"just us", "alone", "private", "don't tell", "keep between us",
	"our secret", "without them", "by ourselves", "meet up",
	"come over", "your parents", "they don't understand",
	// Portuguese
	"só nós", "sozinho", "sozinha", "sozinhos", "privado", "privada",
	"não contar", "não conte", "não contem", "entre nós", "só entre nós",
	"nosso segredo", "sem eles", "sem elas", "vir aqui", "vem aqui",
	"seus pais", "sua família", "não entendem", "não vão entender",
	"exagerar", "estragar", "arruinar", "ninguém precisa saber",
	// Spanish
	"solo nosotros", "solos", "no digas", "no cuentes",
	"entre nosotros", "nuestro secreto", "sin ellos", "ven aquí",
	"tus padres", "tu familia", "no entienden", "no van a entender",
}

var secrecyPhrases = []string{
	// English
	"secret", "don't tell", "keep this private", "between us",
	"our little", "confidential", "nobody knows", "hide",
	"delete", "erase", "password", "private chat",
	// Portuguese
	"segredo", "não contar", "não conte", "mantenha privado", "manter privado",
	"entre nós", "nosso", "confidencial", "ninguém sabe", "esconder",
	"deletar", "apagar", "excluir", "senha", "conversa privada",
	"só nosso", "só nossa", "não diga", "fica entre nós",
	// Spanish
	"secreto", "no digas", "no cuentes", "mantener privado", "entre nosotros",
	"nuestro", "nadie sabe", "ocultar",
	"borrar", "eliminar", "contraseña", "chat privado",
}

var platformMigrationPhrases = []string{
	// English
	"snapchat", "whatsapp", "telegram", "discord", "instagram",
	"phone number", "text me", "dm me", "add me on", "private message",
	"different app", "other platform", "email me",
	// Portuguese
	"número de telefone", "me manda mensagem", "me chama", "me adiciona",
	"mensagem privada", "outro app", "outro aplicativo", "outra plataforma",
	"me manda email", "passa seu número", "qual seu número",
	// Spanish
	"número de teléfono", "envíame mensaje", "mándame mensaje", "agrégame",
	"mensaje privado", "otra aplicación", "otra plataforma", "envíame email",
	"pásame tu número",
}
